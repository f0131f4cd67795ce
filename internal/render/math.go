package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	fencedCodePattern   = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodePattern   = regexp.MustCompile("`[^`]+`")
	explicitDisplayMath = regexp.MustCompile(`\\\[[\s\S]*?\\\]`)
	explicitInlineMath  = regexp.MustCompile(`\\\([\s\S]*?\\\)`)
	bracketSpanPattern  = regexp.MustCompile(`\[([^\]]*)\]`)
	parenSpanPattern    = regexp.MustCompile(`\(([^)]*)\)`)
)

var (
	displayMathMarkers = []string{`\`, "frac", "sum", "int", "ldots", "=", "^", "_"}
	inlineMathMacros   = []string{
		"frac", "sum", "int", "omega", "alpha", "beta", "gamma", "delta", "theta",
		"lambda", "pi", "sigma", "sqrt", "sin", "cos", "tan", "log", "exp", "lim",
		"infty", "partial", "nabla", "cdot", "times",
	}
)

// MathHeuristic decides whether a delimited span is LaTeX. Both checks are
// guesses with no confidence attached.
type MathHeuristic struct {
	// Display is applied to the inside of [ ... ] spans.
	Display func(span string) bool
	// Inline is applied to the inside of ( ... ) spans.
	Inline func(span string) bool
}

// DefaultMathHeuristic treats a bracket span as display math when it holds
// a backslash, one of frac/sum/int/ldots, one of = ^ _, or both parentheses.
// A paren span is inline math only with a backslash and a known macro name.
func DefaultMathHeuristic() MathHeuristic {
	return MathHeuristic{Display: LooksLikeDisplayMath, Inline: LooksLikeInlineMath}
}

func LooksLikeDisplayMath(span string) bool {
	if containsAny(span, displayMathMarkers) {
		return true
	}
	return strings.Contains(span, "(") && strings.Contains(span, ")")
}

func LooksLikeInlineMath(span string) bool {
	return strings.Contains(span, `\`) && containsAny(span, inlineMathMacros)
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// spanTable maps placeholder tokens back to the text they replaced.
type spanTable struct {
	prefix string
	raw    []string
}

func (t *spanTable) hold(raw string) string {
	token := fmt.Sprintf("%s%dX", t.prefix, len(t.raw))
	t.raw = append(t.raw, raw)
	return token
}

func (t *spanTable) pairs(transform func(string) string) []string {
	pairs := make([]string, 0, len(t.raw)*2)
	// Highest index first so "...1X" never shadows "...10X".
	for i := len(t.raw) - 1; i >= 0; i-- {
		pairs = append(pairs, fmt.Sprintf("%s%dX", t.prefix, i), transform(t.raw[i]))
	}
	return pairs
}

func (t *spanTable) restore(s string, transform func(string) string) string {
	if len(t.raw) == 0 {
		return s
	}
	return strings.NewReplacer(t.pairs(transform)...).Replace(s)
}

func identity(s string) string { return s }

// preparedText is markdown source with math spans swapped for tokens.
type preparedText struct {
	source string
	math   *spanTable
}

// restoreMath puts the escaped math spans back into rendered HTML.
func (p preparedText) restoreMath(rendered string) string {
	return p.math.restore(rendered, html.EscapeString)
}

// prepareMath protects code, rewrites LaTeX-looking bracket and paren spans
// into \[ \] and \( \) delimiters, and lifts every math span out of the text
// so the markdown parser cannot touch its backslashes.
func prepareMath(text string, heuristic MathHeuristic) preparedText {
	nonce := tokenNonce(text)
	code := &spanTable{prefix: "CHATLLMCODE" + nonce}
	math := &spanTable{prefix: "CHATLLMMATH" + nonce}

	s := fencedCodePattern.ReplaceAllStringFunc(text, code.hold)
	s = inlineCodePattern.ReplaceAllStringFunc(s, code.hold)

	s = explicitDisplayMath.ReplaceAllStringFunc(s, math.hold)
	s = explicitInlineMath.ReplaceAllStringFunc(s, math.hold)

	if heuristic.Display != nil {
		s = replaceSpans(s, bracketSpanPattern, func(match, inner string, next byte, prev byte) string {
			// Leave markdown links, images and reference labels alone.
			if next == '(' || next == '[' || prev == '!' || prev == ']' {
				return match
			}
			if !heuristic.Display(inner) {
				return match
			}
			return math.hold(`\[` + inner + `\]`)
		})
	}
	if heuristic.Inline != nil {
		s = replaceSpans(s, parenSpanPattern, func(match, inner string, _ byte, _ byte) string {
			if !heuristic.Inline(inner) {
				return match
			}
			return math.hold(`\(` + inner + `\)`)
		})
	}

	s = code.restore(s, identity)
	for i, raw := range math.raw {
		math.raw[i] = code.restore(raw, identity)
	}
	return preparedText{source: s, math: math}
}

// tokenNonce returns an alphanumeric marker absent from text, so placeholder
// tokens never collide with literal input.
func tokenNonce(text string) string {
	for {
		nonce := strings.ReplaceAll(uuid.NewString(), "-", "") + "N"
		if !strings.Contains(text, nonce) {
			return nonce
		}
	}
}

// replaceSpans is ReplaceAllStringSubmatchFunc with access to the bytes
// around each match.
func replaceSpans(s string, re *regexp.Regexp, fn func(match, inner string, next, prev byte) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		var next, prev byte
		if m[1] < len(s) {
			next = s[m[1]]
		}
		if m[0] > 0 {
			prev = s[m[0]-1]
		}
		b.WriteString(s[last:m[0]])
		b.WriteString(fn(s[m[0]:m[1]], s[m[2]:m[3]], next, prev))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
