package orchestrator

import (
	"time"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/settings"
)

// WelcomeText is shown in place of an empty transcript.
const WelcomeText = "Hello! I'm your AI assistant. How can I help you today?"

// MessageView is a message ready for display.
type MessageView struct {
	Role      chat.Role `json:"role"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	Images    []string  `json:"images,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Pending   bool      `json:"pending,omitempty"`
	Welcome   bool      `json:"welcome,omitempty"`
}

// ConversationView is a conversation list entry.
type ConversationView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Preview       string    `json:"preview"`
	MessageCount  int       `json:"messageCount"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	Current       bool      `json:"current"`
}

// TranscriptView is a selected conversation with its rendered messages.
type TranscriptView struct {
	Conversation ConversationView `json:"conversation"`
	Messages     []MessageView    `json:"messages"`
	State        State            `json:"state"`
}

// SendResult is returned by a successful send.
type SendResult struct {
	Conversation ConversationView `json:"conversation"`
	Messages     []MessageView    `json:"messages"`
}

// DeletedPayload is the data of a conversation.deleted event.
type DeletedPayload struct {
	DeletedID string           `json:"deletedId"`
	Current   ConversationView `json:"current"`
}

// StatePayload is the data of a state.changed event.
type StatePayload struct {
	State State `json:"state"`
}

// FailurePayload is the data of a send.failed event.
type FailurePayload struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// AttachmentsPayload is the data of an attachments.changed event.
type AttachmentsPayload struct {
	Attachments []attachment.Info `json:"attachments"`
}

// SettingsView is settings without the key itself.
type SettingsView struct {
	Model          string `json:"model"`
	SidebarVisible bool   `json:"sidebarVisible"`
	Configured     bool   `json:"configured"`
}

func settingsView(s settings.Settings) SettingsView {
	return SettingsView{Model: s.Model, SidebarVisible: s.SidebarVisible, Configured: s.Configured()}
}

func conversationView(c chat.Conversation, currentID string) ConversationView {
	return ConversationView{
		ID:            c.ID,
		Title:         c.Title,
		Preview:       c.Preview(),
		MessageCount:  len(c.Messages),
		CreatedAt:     c.CreatedAt,
		LastMessageAt: c.LastMessageAt,
		Current:       c.ID == currentID,
	}
}
