package orchestrator

import (
	"log"
	"sync"
	"time"
)

// EventType names a state change pushed to the page.
type EventType string

const (
	EventConversationCreated  EventType = "conversation.created"
	EventConversationSelected EventType = "conversation.selected"
	EventConversationDeleted  EventType = "conversation.deleted"
	EventConversationRenamed  EventType = "conversation.renamed"
	EventMessagePending       EventType = "message.pending"
	EventMessageAppended      EventType = "message.appended"
	EventStateChanged         EventType = "state.changed"
	EventSendFailed           EventType = "send.failed"
	EventAttachmentsChanged   EventType = "attachments.changed"
	EventSettingsChanged      EventType = "settings.changed"
)

// Event is one notification on the bus.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	Data           any       `json:"data,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of future events and a cancel func that
// closes it. buffer below 1 is raised to 1.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers e to every subscriber with room for it.
func (b *Bus) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			log.Printf("[orchestrator] subscriber %d is full, dropped %s", id, e.Type)
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
