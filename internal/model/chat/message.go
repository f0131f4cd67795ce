package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType tags a structured content fragment.
type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
)

// ImageURL holds an http(s) URL or a base64 data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one typed fragment of a structured message body.
type ContentPart struct {
	Type     PartType  `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// TextPart builds a text fragment.
func TextPart(text string) ContentPart {
	return ContentPart{Type: PartText, Text: text}
}

// ImagePart builds an image fragment from a URL or data URI.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: PartImage, ImageURL: &ImageURL{URL: url}}
}

// Content is either plain text (Parts == nil) or an ordered list of parts.
// It marshals to a JSON string or a JSON array accordingly.
type Content struct {
	Text  string
	Parts []ContentPart
}

// PlainText wraps a string body.
func PlainText(text string) Content {
	return Content{Text: text}
}

// Structured wraps a part list body.
func Structured(parts ...ContentPart) Content {
	return Content{Parts: append([]ContentPart{}, parts...)}
}

// IsStructured reports whether the body is a part list.
func (c Content) IsStructured() bool {
	return c.Parts != nil
}

// DisplayText returns the text shown for the message: the string body, or
// the first text part of a structured body.
func (c Content) DisplayText() string {
	if !c.IsStructured() {
		return c.Text
	}
	for _, part := range c.Parts {
		if part.Type == PartText {
			return part.Text
		}
	}
	return ""
}

// Images returns the image URLs of a structured body in order.
func (c Content) Images() []string {
	var urls []string
	for _, part := range c.Parts {
		if part.Type == PartImage && part.ImageURL != nil {
			urls = append(urls, part.ImageURL.URL)
		}
	}
	return urls
}

// Empty reports whether the body carries neither text nor an image.
func (c Content) Empty() bool {
	return c.DisplayText() == "" && len(c.Images()) == 0
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsStructured() {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = Content{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = Content{Text: text}
		return nil
	case '[':
		parts := []ContentPart{}
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return err
		}
		*c = Content{Parts: parts}
		return nil
	default:
		return fmt.Errorf("content must be a string or an array of parts")
	}
}

// Message is one turn of a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
