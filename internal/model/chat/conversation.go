package chat

import "time"

// DefaultTitle labels a conversation until its first user message arrives.
const DefaultTitle = "New Chat"

// Conversation is a titled, ordered message log.
type Conversation struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Messages      []Message `json:"messages"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// Clone returns a copy whose message slice can be mutated independently.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

const (
	titleMaxRunes   = 30
	previewMaxRunes = 50

	imageOnlyTitle = "Image message"
	emptyPreview   = "No messages yet"
)

// DeriveTitle turns the first user message into a conversation title.
func DeriveTitle(content Content) string {
	text := content.DisplayText()
	if text == "" && content.IsStructured() {
		text = imageOnlyTitle
	}
	runes := []rune(text)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return text
}

// UserMessageCount returns how many messages were authored by the user.
func (c Conversation) UserMessageCount() int {
	count := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			count++
		}
	}
	return count
}

// Preview summarises the latest message for conversation lists.
func (c Conversation) Preview() string {
	if len(c.Messages) == 0 {
		return emptyPreview
	}
	last := c.Messages[len(c.Messages)-1]
	prefix := "AI: "
	if last.Role == RoleUser {
		prefix = "You: "
	}
	runes := []rune(last.Content.DisplayText())
	if len(runes) > previewMaxRunes {
		runes = runes[:previewMaxRunes]
	}
	return prefix + string(runes) + "..."
}
