// Package attachment holds the files queued for the next outgoing message.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
)

// DefaultMaxBytes is the per-file limit (10 MiB). Files of exactly this size are accepted.
const DefaultMaxBytes int64 = 10 * 1024 * 1024

var ErrTooLarge = errors.New("attachment is too large")

// Attachment is one pending file.
type Attachment struct {
	Name     string
	Size     int64
	MIMEType string
	Data     []byte
}

// IsImage reports whether the attachment is sent as an image part.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// DataURI encodes the attachment as a base64 data URI.
func (a Attachment) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}

// Info describes a pending attachment for listings.
type Info struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	SizeLabel string `json:"sizeLabel"`
	MIMEType  string `json:"mimeType"`
	IsImage   bool   `json:"isImage"`
}

// Manager is the pending attachment list.
type Manager struct {
	mu       sync.Mutex
	maxBytes int64
	pending  []Attachment
}

// NewManager returns a manager enforcing maxBytes per file. A non-positive
// limit selects DefaultMaxBytes.
func NewManager(maxBytes int64) *Manager {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Manager{maxBytes: maxBytes}
}

// MaxBytes returns the per-file limit.
func (m *Manager) MaxBytes() int64 {
	return m.maxBytes
}

// Add validates and queues a file. A rejected file leaves the list unchanged.
func (m *Manager) Add(a Attachment) error {
	if a.Size == 0 {
		a.Size = int64(len(a.Data))
	}
	if a.Size > m.maxBytes {
		return fmt.Errorf("%w: %s is %s, limit is %s", ErrTooLarge, a.Name, FormatFileSize(a.Size), FormatFileSize(m.maxBytes))
	}
	if a.MIMEType == "" {
		a.MIMEType = "application/octet-stream"
	}

	m.mu.Lock()
	m.pending = append(m.pending, a)
	m.mu.Unlock()
	return nil
}

// AddReader reads a file body and queues it. At most one byte past the
// limit is read before rejecting.
func (m *Manager) AddReader(name, mimeType string, r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, m.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read attachment %s: %w", name, err)
	}
	return m.Add(Attachment{Name: name, Size: int64(len(data)), MIMEType: mimeType, Data: data})
}

// Remove drops the attachment at index. Out-of-range indexes are ignored.
func (m *Manager) Remove(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.pending) {
		return false
	}
	m.pending = append(m.pending[:index:index], m.pending[index+1:]...)
	return true
}

// Clear empties the list.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// Len returns the number of pending attachments.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// List describes the pending attachments in order.
func (m *Manager) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Info, len(m.pending))
	for i, a := range m.pending {
		out[i] = Info{
			Index:     i,
			Name:      a.Name,
			Size:      a.Size,
			SizeLabel: FormatFileSize(a.Size),
			MIMEType:  a.MIMEType,
			IsImage:   a.IsImage(),
		}
	}
	return out
}

// Snapshot returns a copy of the pending list.
func (m *Manager) Snapshot() []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Attachment, len(m.pending))
	copy(out, m.pending)
	return out
}

// Take returns the pending list and empties it in one step, so each file
// is claimed by exactly one send.
func (m *Manager) Take() []Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.pending
	m.pending = nil
	return out
}

// RequestParts is the outgoing form of the pending attachments.
type RequestParts struct {
	// Images are data-URI image parts in attachment order.
	Images []chat.ContentPart
	// Note names the non-image attachments, e.g. "[Attachments: a.pdf, b.txt]".
	Note string
}

// ToRequestParts converts the pending list into request parts.
func (m *Manager) ToRequestParts() RequestParts {
	return BuildRequestParts(m.Snapshot())
}

// BuildRequestParts converts attachments into request parts.
func BuildRequestParts(attachments []Attachment) RequestParts {
	var parts RequestParts
	var others []Attachment
	for _, a := range attachments {
		if a.IsImage() {
			parts.Images = append(parts.Images, chat.ImagePart(a.DataURI()))
			continue
		}
		others = append(others, a)
	}
	parts.Note = Note(others)
	return parts
}

// ApplyNote appends the note to text, separated by a blank line.
func (p RequestParts) ApplyNote(text string) string {
	return appendNote(text, p.Note)
}

// Note renders "[Attachments: a, b]" for the given files, or "" when empty.
func Note(attachments []Attachment) string {
	if len(attachments) == 0 {
		return ""
	}
	names := make([]string, len(attachments))
	for i, a := range attachments {
		names[i] = a.Name
	}
	return "[Attachments: " + strings.Join(names, ", ") + "]"
}

// DisplayText is the optimistic transcript text: the typed text followed by
// a note naming every attachment.
func DisplayText(text string, attachments []Attachment) string {
	return appendNote(text, Note(attachments))
}

func appendNote(text, note string) string {
	switch {
	case note == "":
		return text
	case text == "":
		return note
	default:
		return text + "\n\n" + note
	}
}
