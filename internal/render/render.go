// Package render turns message text into safe HTML: markdown with GFM,
// heuristic LaTeX delimiters, and decorated, highlighted code blocks.
package render

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/Balaji-Udayagiri/ChatLLM/internal/model/chat"
)

// Converter is the markdown stage. goldmark.Markdown satisfies it.
type Converter interface {
	Convert(source []byte, w io.Writer, opts ...parser.ParseOption) error
}

// Renderer converts message text to HTML. It is safe for concurrent use.
type Renderer struct {
	markdown  Converter
	decorator Decorator
	math      MathHeuristic
	policy    *bluemonday.Policy
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithConverter replaces the markdown stage.
func WithConverter(c Converter) Option {
	return func(r *Renderer) { r.markdown = c }
}

// WithHighlighter replaces the code highlighter. nil disables highlighting.
func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) { r.decorator.Highlighter = h }
}

// WithLanguageGuesser replaces the code language heuristic.
func WithLanguageGuesser(g LanguageGuesser) Option {
	return func(r *Renderer) { r.decorator.Guess = g }
}

// WithMathHeuristic replaces the LaTeX span heuristic.
func WithMathHeuristic(m MathHeuristic) Option {
	return func(r *Renderer) { r.math = m }
}

// New returns a Renderer with goldmark, chroma and keyword language guessing.
// Raw HTML passes through goldmark and is left to the sanitiser.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps(), gmhtml.WithUnsafe()),
		),
		decorator: Decorator{
			Highlighter: NewChromaHighlighter(DefaultStyle),
			Guess:       KeywordGuess,
		},
		math:   DefaultMathHeuristic(),
		policy: NewPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts assistant text to HTML. Any failure in the pipeline,
// including a panic, falls back to escaped text with line breaks.
func (r *Renderer) Render(text string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[render] markdown panic: %v", rec)
			out = Fallback(text)
		}
	}()

	rendered, err := r.render(text)
	if err != nil {
		log.Printf("[render] falling back to plain text: %v", err)
		return Fallback(text)
	}
	return rendered
}

func (r *Renderer) render(text string) (string, error) {
	prepared := prepareMath(text, r.math)

	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(prepared.source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	decorated, err := r.decorator.Decorate(buf.String())
	if err != nil {
		return "", err
	}

	return prepared.restoreMath(r.policy.Sanitize(decorated)), nil
}

// RenderMessage renders a stored message: user text is shown escaped with
// its images, assistant text goes through Render.
func (r *Renderer) RenderMessage(message chat.Message) string {
	text := message.Content.DisplayText()
	if message.Role == chat.RoleAssistant {
		return r.Render(text)
	}

	var b strings.Builder
	b.WriteString(Fallback(text))
	if images := message.Content.Images(); len(images) > 0 {
		b.WriteString(`<div class="image-attachments">`)
		for _, url := range images {
			fmt.Fprintf(&b, `<img class="message-image" src="%s" alt="attachment">`, html.EscapeString(url))
		}
		b.WriteString(`</div>`)
	}
	return r.policy.Sanitize(b.String())
}

// Fallback escapes text and turns newlines into <br>.
func Fallback(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
