package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/storage/kv"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyContent         = errors.New("message content is empty")
	ErrTitleRequired        = errors.New("title is required")
)

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service owns the conversation list. Conversations are kept most recent
// first, and every mutation rewrites the whole list to the kv store.
type Service struct {
	mu            sync.RWMutex
	store         kv.Store
	conversations []chat.Conversation
	currentID     string
	now           func() time.Time
}

// NewService returns an empty store backed by the given kv store.
func NewService(store kv.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. Unreadable data
// leaves the list empty and is reported to the caller.
func (s *Service) Load(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, kv.KeyConversations)
	if err != nil {
		return err
	}

	var conversations []chat.Conversation
	if ok && strings.TrimSpace(raw) != "" {
		conversations, err = decodeConversations([]byte(raw))
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = conversations
	s.currentID = ""
	return nil
}

// CreateConversation prepends a fresh conversation and makes it current.
func (s *Service) CreateConversation(ctx context.Context) chat.Conversation {
	now := s.now()
	conversation := chat.Conversation{
		ID:            uuid.NewString(),
		Title:         chat.DefaultTitle,
		Messages:      []chat.Message{},
		CreatedAt:     now,
		LastMessageAt: now,
	}

	s.mu.Lock()
	s.conversations = append([]chat.Conversation{conversation}, s.conversations...)
	s.currentID = conversation.ID
	s.persistLocked(ctx)
	s.mu.Unlock()

	log.Printf("[chat] created conversation %s", conversation.ID)
	return conversation.Clone()
}

// LoadConversation marks id as current and returns it.
func (s *Service) LoadConversation(_ context.Context, id string) (chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		log.Printf("[chat] load: conversation %s not found", id)
		return chat.Conversation{}, ErrConversationNotFound
	}
	s.currentID = id
	return s.conversations[idx].Clone(), nil
}

// AppendMessage appends one message. See AppendMessages.
func (s *Service) AppendMessage(ctx context.Context, id string, message chat.Message) (chat.Conversation, error) {
	return s.AppendMessages(ctx, id, message)
}

// AppendMessages appends messages in order as a single mutation. The first
// user message of a conversation sets its title. Nothing is appended if any
// message is empty or the conversation is missing.
func (s *Service) AppendMessages(ctx context.Context, id string, messages ...chat.Message) (chat.Conversation, error) {
	for _, message := range messages {
		if message.Content.Empty() {
			return chat.Conversation{}, ErrEmptyContent
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		log.Printf("[chat] append: conversation %s not found", id)
		return chat.Conversation{}, ErrConversationNotFound
	}

	conversation := &s.conversations[idx]
	for _, message := range messages {
		if message.Timestamp.IsZero() {
			message.Timestamp = s.now()
		}
		conversation.Messages = append(conversation.Messages, message)
		conversation.LastMessageAt = message.Timestamp

		if message.Role == chat.RoleUser && conversation.UserMessageCount() == 1 {
			conversation.Title = chat.DeriveTitle(message.Content)
		}
	}

	s.persistLocked(ctx)
	return conversation.Clone(), nil
}

// DeleteConversation removes id. When the current conversation is removed
// the most recent remaining one becomes current, or a new one is created.
func (s *Service) DeleteConversation(ctx context.Context, id string) (chat.Conversation, error) {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		log.Printf("[chat] delete: conversation %s not found", id)
		return chat.Conversation{}, ErrConversationNotFound
	}

	s.conversations = append(s.conversations[:idx:idx], s.conversations[idx+1:]...)
	wasCurrent := s.currentID == id
	if wasCurrent {
		s.currentID = ""
		if len(s.conversations) > 0 {
			s.currentID = s.conversations[0].ID
		}
	}
	s.persistLocked(ctx)

	needsFresh := wasCurrent && len(s.conversations) == 0
	var current chat.Conversation
	if !needsFresh {
		if cidx := s.indexLocked(s.currentID); cidx >= 0 {
			current = s.conversations[cidx].Clone()
		}
	}
	s.mu.Unlock()

	log.Printf("[chat] deleted conversation %s", id)
	if needsFresh {
		return s.CreateConversation(ctx), nil
	}
	return current, nil
}

// RenameConversation replaces the title of id.
func (s *Service) RenameConversation(ctx context.Context, id, title string) (chat.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return chat.Conversation{}, ErrTitleRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return chat.Conversation{}, ErrConversationNotFound
	}
	s.conversations[idx].Title = title
	s.persistLocked(ctx)
	return s.conversations[idx].Clone(), nil
}

// List returns every conversation, most recently created first.
func (s *Service) List(_ context.Context) []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Conversation, len(s.conversations))
	for i, conversation := range s.conversations {
		out[i] = conversation.Clone()
	}
	return out
}

// Get returns a conversation without changing the current selection.
func (s *Service) Get(_ context.Context, id string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return s.conversations[idx].Clone(), nil
}

// Current returns the current conversation, if any.
func (s *Service) Current(_ context.Context) (chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(s.currentID)
	if idx < 0 {
		return chat.Conversation{}, false
	}
	return s.conversations[idx].Clone(), true
}

func (s *Service) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked rewrites the full list. Failures keep the in-memory state.
// The write is detached from cancellation so memory and storage stay in step
// when the caller goes away mid-request.
func (s *Service) persistLocked(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	data, err := encodeConversations(s.conversations)
	if err != nil {
		log.Printf("[chat] encode conversations failed: %v", err)
		return
	}
	if err := s.store.Set(ctx, kv.KeyConversations, string(data)); err != nil {
		log.Printf("[chat] persist conversations failed: %v", err)
	}
}
