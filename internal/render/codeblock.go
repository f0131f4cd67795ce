package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	containerClass = "code-block-container"
	languageClass  = "code-language"
	copyClass      = "copy-button"

	copyLabel     = "Copy"
	copiedLabel   = "Copied!"
	copiedResetMS = 2000
)

// Decorator wraps rendered code blocks with a language label and a copy
// button. The button carries the literal code and the transient label the
// page shows after copying.
type Decorator struct {
	Highlighter Highlighter
	Guess       LanguageGuesser
}

// Decorate rewrites every pre>code block in fragment that is not already
// inside a code-block container.
func (d Decorator) Decorate(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("parse rendered html: %w", err)
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	var blocks []*html.Node
	walk(root, func(n *html.Node) {
		if isElement(n, atom.Pre) && firstElementChild(n, atom.Code) != nil && !decorated(n) {
			blocks = append(blocks, n)
		}
	})
	for _, pre := range blocks {
		d.decorateBlock(pre)
	}

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render decorated html: %w", err)
		}
	}
	return buf.String(), nil
}

func (d Decorator) decorateBlock(pre *html.Node) {
	code := firstElementChild(pre, atom.Code)
	source := textContent(code)

	language := languageFromClass(attr(code, "class"))
	if language == "" && d.Guess != nil {
		language = d.Guess(source)
	}

	if d.Highlighter != nil {
		if highlighted, err := d.Highlighter.Highlight(source, language); err == nil {
			if children, err := html.ParseFragment(strings.NewReader(highlighted), code); err == nil {
				for c := code.FirstChild; c != nil; {
					next := c.NextSibling
					code.RemoveChild(c)
					c = next
				}
				for _, child := range children {
					code.AppendChild(child)
				}
				addClass(pre, "chroma")
			}
		}
	}
	if language != "" && languageFromClass(attr(code, "class")) == "" {
		addClass(code, "language-"+language)
	}

	container := element(atom.Div, html.Attribute{Key: "class", Val: containerClass})
	parent := pre.Parent
	parent.InsertBefore(container, pre)
	parent.RemoveChild(pre)
	container.AppendChild(pre)

	if language != "" {
		label := element(atom.Div, html.Attribute{Key: "class", Val: languageClass})
		label.AppendChild(&html.Node{Type: html.TextNode, Data: language})
		container.AppendChild(label)
	}

	button := element(atom.Button,
		html.Attribute{Key: "type", Val: "button"},
		html.Attribute{Key: "class", Val: copyClass},
		html.Attribute{Key: "data-code", Val: source},
		html.Attribute{Key: "data-copied-label", Val: copiedLabel},
		html.Attribute{Key: "data-reset-ms", Val: strconv.Itoa(copiedResetMS)},
	)
	button.AppendChild(&html.Node{Type: html.TextNode, Data: copyLabel})
	container.AppendChild(button)
}

func decorated(pre *html.Node) bool {
	parent := pre.Parent
	if parent == nil || !isElement(parent, atom.Div) {
		return false
	}
	for _, class := range strings.Fields(attr(parent, "class")) {
		if class == containerClass {
			return true
		}
	}
	return false
}

func languageFromClass(class string) string {
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n.Type == html.ElementNode && n.DataAtom == a
}

func firstElementChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.DataAtom == a {
				return c
			}
			return nil
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func addClass(n *html.Node, class string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			for _, existing := range strings.Fields(a.Val) {
				if existing == class {
					return
				}
			}
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}
