package chat

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name    string
		content Content
		want    string
	}{
		{"short", PlainText("Hello"), "Hello"},
		{"exactly thirty", PlainText(strings.Repeat("b", 30)), strings.Repeat("b", 30)},
		{"long", PlainText(strings.Repeat("A", 40)), strings.Repeat("A", 30) + "..."},
		{"multibyte", PlainText(strings.Repeat("é", 31)), strings.Repeat("é", 30) + "..."},
		{"image only", Structured(ImagePart("data:image/png;base64,AA")), "Image message"},
		{"parts with text", Structured(TextPart("look"), ImagePart("x")), "look"},
	}

	for _, tc := range cases {
		if got := DeriveTitle(tc.content); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestPreview(t *testing.T) {
	var conv Conversation
	if got := conv.Preview(); got != "No messages yet" {
		t.Fatalf("unexpected empty preview: %q", got)
	}

	conv.Messages = []Message{
		{Role: RoleUser, Content: PlainText("hi")},
		{Role: RoleAssistant, Content: PlainText(strings.Repeat("z", 60))},
	}
	if got := conv.Preview(); got != "AI: "+strings.Repeat("z", 50)+"..." {
		t.Fatalf("unexpected preview: %q", got)
	}

	conv.Messages = conv.Messages[:1]
	if got := conv.Preview(); got != "You: hi..." {
		t.Fatalf("unexpected preview: %q", got)
	}
}

func TestContentJSONShapes(t *testing.T) {
	plain, err := json.Marshal(PlainText("Hello"))
	if err != nil {
		t.Fatalf("marshal plain: %v", err)
	}
	if string(plain) != `"Hello"` {
		t.Fatalf("plain content should encode as a string, got %s", plain)
	}

	parts, err := json.Marshal(Structured(TextPart("Hello"), ImagePart("data:x")))
	if err != nil {
		t.Fatalf("marshal parts: %v", err)
	}
	want := `[{"type":"text","text":"Hello"},{"type":"image_url","image_url":{"url":"data:x"}}]`
	if string(parts) != want {
		t.Fatalf("unexpected parts encoding: %s", parts)
	}

	var decoded Content
	if err := json.Unmarshal([]byte(`42`), &decoded); err == nil {
		t.Fatal("expected error for numeric content")
	}
}

func TestContentEmpty(t *testing.T) {
	if !PlainText("").Empty() {
		t.Fatal("empty text should be empty")
	}
	if Structured(ImagePart("data:x")).Empty() {
		t.Fatal("image-only content is not empty")
	}
}
