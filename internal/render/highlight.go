package render

import (
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
)

// Highlighter turns source code into highlighted inner HTML for a code element.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}

// DefaultStyle is the chroma style used for the stylesheet.
const DefaultStyle = "github"

// ChromaHighlighter emits class-based chroma markup. Colours come from the
// stylesheet returned by WriteCSS.
type ChromaHighlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewChromaHighlighter returns a highlighter for the named style.
func NewChromaHighlighter(styleName string) *ChromaHighlighter {
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}
	return &ChromaHighlighter{
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
		style:     style,
	}
}

// Highlight tokenises code with the lexer for language, falling back to
// plain text when the language is unknown.
func (h *ChromaHighlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteCSS writes the stylesheet for the highlighter's classes.
func (h *ChromaHighlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}
