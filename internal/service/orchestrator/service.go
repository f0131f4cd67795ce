// Package orchestrator drives the conversation lifecycle: selecting and
// deleting conversations, sending messages, and announcing every state
// change on an event bus the page subscribes to.
package orchestrator

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/render"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/ai"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
	chatservice "github.com/Balaji-Udayagiri/ChatLLM/internal/service/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
)

var (
	ErrConfigurationMissing = errors.New("please configure your OpenAI API key first")
	ErrNoConversation       = errors.New("no active conversation")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrSendInFlight         = errors.New("a message is already being sent in this conversation")
)

// State is the per-conversation send state.
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

const typesetDelay = 200 * time.Millisecond

// Deps are the collaborators of a Service.
type Deps struct {
	Chats       *chatservice.Service
	Attachments *attachment.Manager
	Settings    *settings.Service
	Builder     *ai.Builder
	Completer   ai.Completer
	Renderer    *render.Renderer
	Typesetter  render.Typesetter
	Bus         *Bus
	// RequestTimeout bounds a completion call. Zero means no limit.
	RequestTimeout time.Duration
	Now            func() time.Time
}

// Service is the chat orchestrator.
type Service struct {
	chats       *chatservice.Service
	attachments *attachment.Manager
	settings    *settings.Service
	builder     *ai.Builder
	completer   ai.Completer
	renderer    *render.Renderer
	typesetter  render.Typesetter
	bus         *Bus
	timeout     time.Duration
	now         func() time.Time

	mu     sync.Mutex
	states map[string]State
}

// NewService wires the orchestrator and subscribes it to settings changes.
func NewService(deps Deps) *Service {
	s := &Service{
		chats:       deps.Chats,
		attachments: deps.Attachments,
		settings:    deps.Settings,
		builder:     deps.Builder,
		completer:   deps.Completer,
		renderer:    deps.Renderer,
		typesetter:  deps.Typesetter,
		bus:         deps.Bus,
		timeout:     deps.RequestTimeout,
		now:         deps.Now,
		states:      make(map[string]State),
	}
	if s.bus == nil {
		s.bus = NewBus()
	}
	if s.builder == nil {
		s.builder = ai.NewBuilder(ai.DefaultPolicies())
	}
	if s.renderer == nil {
		s.renderer = render.New()
	}
	if s.typesetter == nil {
		s.typesetter = render.NopTypesetter{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	s.settings.OnChange(func(updated settings.Settings) {
		s.publish(EventSettingsChanged, "", settingsView(updated))
	})
	return s
}

// Bus returns the event bus.
func (s *Service) Bus() *Bus {
	return s.bus
}

// Start loads the persisted conversations and selects one, creating a
// conversation when none exist.
func (s *Service) Start(ctx context.Context) error {
	if err := s.chats.Load(ctx); err != nil {
		log.Printf("[orchestrator] load conversations failed, starting empty: %v", err)
	}

	list := s.chats.List(ctx)
	if len(list) == 0 {
		s.CreateConversation(ctx)
		return nil
	}
	_, err := s.SelectConversation(ctx, list[0].ID)
	return err
}

// CreateConversation starts a new conversation and selects it.
func (s *Service) CreateConversation(ctx context.Context) ConversationView {
	created := s.chats.CreateConversation(ctx)
	view := conversationView(created, created.ID)
	s.publish(EventConversationCreated, created.ID, view)
	return view
}

// SelectConversation makes id current and returns its transcript.
func (s *Service) SelectConversation(ctx context.Context, id string) (TranscriptView, error) {
	conv, err := s.chats.LoadConversation(ctx, id)
	if err != nil {
		return TranscriptView{}, err
	}
	transcript := s.transcript(conv, conv.ID)
	s.publish(EventConversationSelected, conv.ID, transcript)
	return transcript, nil
}

// Transcript returns the rendered transcript of id without selecting it.
func (s *Service) Transcript(ctx context.Context, id string) (TranscriptView, error) {
	conv, err := s.chats.Get(ctx, id)
	if err != nil {
		return TranscriptView{}, err
	}
	return s.transcript(conv, s.currentID(ctx)), nil
}

// CurrentTranscript returns the transcript of the current conversation.
func (s *Service) CurrentTranscript(ctx context.Context) (TranscriptView, error) {
	conv, ok := s.chats.Current(ctx)
	if !ok {
		return TranscriptView{}, ErrNoConversation
	}
	return s.transcript(conv, conv.ID), nil
}

// DeleteConversation removes id and returns the conversation that is
// current afterwards.
func (s *Service) DeleteConversation(ctx context.Context, id string) (ConversationView, error) {
	current, err := s.chats.DeleteConversation(ctx, id)
	if err != nil {
		return ConversationView{}, err
	}

	s.mu.Lock()
	delete(s.states, id)
	s.mu.Unlock()

	view := conversationView(current, s.currentID(ctx))
	s.publish(EventConversationDeleted, id, DeletedPayload{DeletedID: id, Current: view})
	return view, nil
}

// RenameConversation retitles id.
func (s *Service) RenameConversation(ctx context.Context, id, title string) (ConversationView, error) {
	renamed, err := s.chats.RenameConversation(ctx, id, title)
	if err != nil {
		return ConversationView{}, err
	}
	view := conversationView(renamed, s.currentID(ctx))
	s.publish(EventConversationRenamed, id, view)
	return view, nil
}

// ListConversations returns list entries, most recent first.
func (s *Service) ListConversations(ctx context.Context) []ConversationView {
	currentID := s.currentID(ctx)
	list := s.chats.List(ctx)
	out := make([]ConversationView, len(list))
	for i, conv := range list {
		out[i] = conversationView(conv, currentID)
	}
	return out
}

// AddAttachment queues a file for the next message.
func (s *Service) AddAttachment(name, mimeType string, r io.Reader) error {
	if err := s.attachments.AddReader(name, mimeType, r); err != nil {
		return err
	}
	s.publishAttachments()
	return nil
}

// RemoveAttachment drops the pending file at index. Out of range is a no-op.
func (s *Service) RemoveAttachment(index int) []attachment.Info {
	if s.attachments.Remove(index) {
		s.publishAttachments()
	}
	return s.attachments.List()
}

// MaxAttachmentBytes is the per-file upload limit.
func (s *Service) MaxAttachmentBytes() int64 {
	return s.attachments.MaxBytes()
}

// Attachments lists the pending files.
func (s *Service) Attachments() []attachment.Info {
	return s.attachments.List()
}

// State reports whether a send is in flight for id.
func (s *Service) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[id]; ok {
		return state
	}
	return StateIdle
}

// SendMessage sends text plus the pending attachments to the current
// conversation. The user message is announced before the call; the log is
// only changed once a reply arrives. The attachments pending when the send
// starts are claimed by it and dropped whatever the outcome.
func (s *Service) SendMessage(ctx context.Context, text string) (SendResult, error) {
	text = strings.TrimSpace(text)

	cfg := s.settings.Get()
	if !cfg.Configured() {
		return SendResult{}, ErrConfigurationMissing
	}
	conv, ok := s.chats.Current(ctx)
	if !ok {
		log.Printf("[orchestrator] send: no active conversation")
		return SendResult{}, ErrNoConversation
	}
	if text == "" && s.attachments.Len() == 0 {
		return SendResult{}, ErrEmptyMessage
	}

	if !s.beginSend(conv.ID) {
		return SendResult{}, ErrSendInFlight
	}
	defer s.endSend(conv.ID)

	// Files queued after this point belong to the next send.
	pending := s.attachments.Take()
	defer s.publishAttachments()
	if text == "" && len(pending) == 0 {
		return SendResult{}, ErrEmptyMessage
	}

	displayed := chat.Message{
		Role:      chat.RoleUser,
		Content:   chat.PlainText(attachment.DisplayText(text, pending)),
		Timestamp: s.now(),
	}
	pendingView := s.messageView(displayed)
	pendingView.Pending = true
	s.publish(EventMessagePending, conv.ID, pendingView)

	req := s.builder.Build(ai.BuildInput{
		History:     conv.Messages,
		Text:        text,
		Attachments: attachment.BuildRequestParts(pending),
		Model:       cfg.Model,
	})

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reply, err := s.completer.Complete(callCtx, cfg.APIKey, req)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = &ai.RemoteCallError{Message: ai.ErrEmptyResponse.Error(), Err: ai.ErrEmptyResponse}
	}
	if err != nil {
		return SendResult{}, s.failSend(conv.ID, err)
	}

	now := s.now()
	userMessage := req.UserMessage()
	userMessage.Timestamp = now
	assistantMessage := chat.Message{Role: chat.RoleAssistant, Content: chat.PlainText(reply), Timestamp: now}

	updated, err := s.chats.AppendMessages(ctx, conv.ID, userMessage, assistantMessage)
	if err != nil {
		return SendResult{}, s.failSend(conv.ID, err)
	}

	result := SendResult{
		Conversation: conversationView(updated, s.currentID(ctx)),
		Messages:     []MessageView{s.messageView(userMessage), s.messageView(assistantMessage)},
	}
	s.publish(EventMessageAppended, conv.ID, result)
	render.TypesetAsync(context.Background(), s.typesetter, result.Messages[1].HTML, typesetDelay)

	log.Printf("[orchestrator] conversation=%s model=%s reply length=%d", conv.ID, cfg.Model, len(reply))
	return result, nil
}

func (s *Service) failSend(conversationID string, err error) error {
	payload := FailurePayload{Error: err.Error()}
	var remote *ai.RemoteCallError
	if errors.As(err, &remote) {
		payload.Status = remote.Status
	}
	log.Printf("[orchestrator] send failed for conversation=%s: %v", conversationID, err)
	s.publish(EventSendFailed, conversationID, payload)
	return err
}

func (s *Service) beginSend(id string) bool {
	s.mu.Lock()
	if s.states[id] == StateSending {
		s.mu.Unlock()
		return false
	}
	s.states[id] = StateSending
	s.mu.Unlock()

	s.publish(EventStateChanged, id, StatePayload{State: StateSending})
	return true
}

func (s *Service) endSend(id string) {
	s.mu.Lock()
	delete(s.states, id)
	s.mu.Unlock()

	s.publish(EventStateChanged, id, StatePayload{State: StateIdle})
}

func (s *Service) publishAttachments() {
	s.publish(EventAttachmentsChanged, "", AttachmentsPayload{Attachments: s.attachments.List()})
}

func (s *Service) publish(t EventType, conversationID string, data any) {
	s.bus.Publish(Event{Type: t, ConversationID: conversationID, Data: data, Timestamp: s.now()})
}

func (s *Service) currentID(ctx context.Context) string {
	conv, ok := s.chats.Current(ctx)
	if !ok {
		return ""
	}
	return conv.ID
}

func (s *Service) transcript(conv chat.Conversation, currentID string) TranscriptView {
	view := TranscriptView{
		Conversation: conversationView(conv, currentID),
		State:        s.State(conv.ID),
	}
	if len(conv.Messages) == 0 {
		view.Messages = []MessageView{{
			Role:      chat.RoleAssistant,
			Text:      WelcomeText,
			HTML:      s.renderer.Render(WelcomeText),
			Timestamp: s.now(),
			Welcome:   true,
		}}
		return view
	}

	view.Messages = make([]MessageView, len(conv.Messages))
	for i, m := range conv.Messages {
		view.Messages[i] = s.messageView(m)
	}
	return view
}

func (s *Service) messageView(m chat.Message) MessageView {
	return MessageView{
		Role:      m.Role,
		Text:      m.Content.DisplayText(),
		HTML:      s.renderer.RenderMessage(m),
		Images:    m.Content.Images(),
		Timestamp: m.Timestamp,
	}
}
