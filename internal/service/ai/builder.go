package ai

import (
	"strings"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
	"github.com/Balaji-Udayagiri/ChatLLM/internal/service/attachment"
)

// DefaultPartText replaces an otherwise empty user message.
const DefaultPartText = "Please analyze these images."

// RequestMessage is one entry of the outgoing message array.
type RequestMessage struct {
	Role    chat.Role    `json:"role"`
	Content chat.Content `json:"content"`
}

// Request is a provider-neutral completion request. Its JSON form is the
// chat completions body.
type Request struct {
	Model               string           `json:"model"`
	Messages            []RequestMessage `json:"messages"`
	MaxTokens           *int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens *int             `json:"max_completion_tokens,omitempty"`
	Temperature         *float64         `json:"temperature,omitempty"`
}

// UserMessage returns the new user message carried by the request, in the
// form it is stored after a successful reply.
func (r Request) UserMessage() chat.Message {
	if len(r.Messages) == 0 {
		return chat.Message{}
	}
	last := r.Messages[len(r.Messages)-1]
	return chat.Message{Role: last.Role, Content: last.Content}
}

// BuildInput collects what a request is built from.
type BuildInput struct {
	History     []chat.Message
	Text        string
	Attachments attachment.RequestParts
	Model       string
}

// Builder assembles completion requests.
type Builder struct {
	policies PolicyTable
}

// NewBuilder returns a builder using the given policy table.
func NewBuilder(policies PolicyTable) *Builder {
	return &Builder{policies: policies}
}

// Policies exposes the table used for sampling parameters.
func (b *Builder) Policies() PolicyTable {
	return b.policies
}

// Build returns the request for in. The history slice is not modified.
func (b *Builder) Build(in BuildInput) Request {
	messages := make([]RequestMessage, 0, len(in.History)+1)
	for _, m := range in.History {
		messages = append(messages, RequestMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, RequestMessage{
		Role:    chat.RoleUser,
		Content: userContent(in.Text, in.Attachments),
	})

	req := Request{Model: in.Model, Messages: messages}
	b.policies.Lookup(in.Model).apply(&req)
	return req
}

func userContent(text string, parts attachment.RequestParts) chat.Content {
	text = parts.ApplyNote(strings.TrimSpace(text))

	content := make([]chat.ContentPart, 0, len(parts.Images)+1)
	if text != "" {
		content = append(content, chat.TextPart(text))
	}
	content = append(content, parts.Images...)
	if len(content) == 0 {
		content = append(content, chat.TextPart(DefaultPartText))
	}
	return chat.Structured(content...)
}
