package render

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// NewPolicy returns the sanitiser for rendered messages: user generated
// content rules plus the markup added by code decoration.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("div", "span", "pre", "code", "button")
	p.AllowAttrs("class").OnElements("div", "span", "pre", "code", "button", "img")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^button$`)).OnElements("button")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowDataAttributes()
	p.AllowDataURIImages()
	return p
}
