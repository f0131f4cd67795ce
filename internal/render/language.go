package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// LanguageGuesser labels a code snippet. It is best effort: the result is a
// display hint and may be wrong for ambiguous snippets. "" means unknown.
type LanguageGuesser func(code string) string

type keywordRule struct {
	language string
	matches  func(code string) bool
}

func hasAny(code string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(code, n) {
			return true
		}
	}
	return false
}

func hasAll(code string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(code, n) {
			return false
		}
	}
	return true
}

// keywordRules are checked in order; the first hit wins.
var keywordRules = []keywordRule{
	{"javascript", func(c string) bool { return hasAny(c, "function", "const", "let", "var", "=>") }},
	{"python", func(c string) bool { return hasAny(c, "def ", "import ", "from ", "print(", "if __name__") }},
	{"java", func(c string) bool { return hasAny(c, "public class", "public static void main", "System.out.print") }},
	{"c", func(c string) bool {
		return strings.Contains(c, "#include") && hasAny(c, "printf", "scanf") &&
			!hasAny(c, "using namespace", "std::", "cout", "cin")
	}},
	{"cpp", func(c string) bool { return hasAny(c, "#include", "using namespace", "std::", "cout", "cin") }},
	{"html", func(c string) bool { return hasAny(c, "<html", "<head", "<body", "<div") }},
	{"css", func(c string) bool { return hasAll(c, ".", "{", "}", "margin") }},
	{"sql", func(c string) bool { return hasAny(c, "SELECT", "INSERT", "UPDATE", "DELETE") }},
	{"bash", func(c string) bool { return hasAny(c, "#!/bin/", "echo ", "cd ", "ls ") }},
	{"json", func(c string) bool { return hasAll(c, "{", "}", `"`, ":") }},
}

// KeywordGuess sniffs for characteristic keywords per language.
func KeywordGuess(code string) string {
	for _, rule := range keywordRules {
		if rule.matches(code) {
			return rule.language
		}
	}
	return ""
}

// ChromaGuess asks chroma's lexer analysers for a match.
func ChromaGuess(code string) string {
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}
	config := lexer.Config()
	if len(config.Aliases) > 0 {
		return config.Aliases[0]
	}
	return strings.ToLower(config.Name)
}

// ChainGuess returns the first non-empty guess.
func ChainGuess(guessers ...LanguageGuesser) LanguageGuesser {
	return func(code string) string {
		for _, guess := range guessers {
			if guess == nil {
				continue
			}
			if lang := guess(code); lang != "" {
				return lang
			}
		}
		return ""
	}
}
