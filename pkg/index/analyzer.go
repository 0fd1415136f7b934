package index

import (
	"strings"
	"unicode"
)

const (
	minTokenLength = 2
	maxTokenLength = 128
)

// Analyzer implements the tokenization policy from spec §4.4: split on
// non-identifier runs, split camel/Pascal-case runs into sub-tokens while
// preserving the original-case token too, drop anything shorter than
// minTokenLength or longer than maxTokenLength. The same analyzer tokenizes
// both document content and text queries, so search terms match what was
// indexed.
type Analyzer struct{}

// NewAnalyzer returns the stateless default Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Tokenize splits text into lower-cased search terms plus their
// case-preserved duplicates, per spec §4.4.
func (a *Analyzer) Tokenize(text string) []string {
	var tokens []string
	for _, run := range splitIdentifierRuns(text) {
		tokens = append(tokens, a.splitCase(run)...)
	}
	return tokens
}

// splitIdentifierRuns breaks text on any rune that is not a letter, digit,
// or underscore.
func splitIdentifierRuns(text string) []string {
	var runs []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			runs = append(runs, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return runs
}

// splitCase splits a camelCase/PascalCase/snake_case run into its
// constituent words (lower-cased), and also keeps the original run,
// original casing preserved, as a duplicate whole-word token, per spec
// §4.4's "FooBarBaz -> foo, bar, baz, FooBarBaz" example.
func (a *Analyzer) splitCase(run string) []string {
	run = strings.Trim(run, "_")
	if run == "" {
		return nil
	}

	parts := splitCamelAndSnake(run)

	tokens := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		tokens = append(tokens, addToken(strings.ToLower(p))...)
	}
	tokens = append(tokens, addToken(run)...)

	return tokens
}

func addToken(t string) []string {
	if len(t) < minTokenLength || len(t) > maxTokenLength {
		return nil
	}
	return []string{t}
}

// splitCamelAndSnake splits a run first on underscores, then each segment on
// case transitions: lower->upper ("fooBar" -> "foo","Bar"), and a trailing
// upper before a lower in an all-caps run ("HTTPServer" -> "HTTP","Server").
// Digits stay in the word they follow ("base64Encode" -> "base64","Encode").
func splitCamelAndSnake(run string) []string {
	var segments []string
	for _, seg := range strings.Split(run, "_") {
		segments = append(segments, splitCamel(seg)...)
	}
	return segments
}

func splitCamel(seg string) []string {
	if seg == "" {
		return nil
	}
	runes := []rune(seg)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		switch {
		case (unicode.IsLower(prev) || unicode.IsDigit(prev)) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}

// TokenizePathComponents splits a relative path into its segments and
// tokenizes each, for the path_component field described in spec §3.
func (a *Analyzer) TokenizePathComponents(relativePath string) []string {
	var tokens []string
	segments := strings.FieldsFunc(relativePath, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for _, seg := range segments {
		tokens = append(tokens, a.Tokenize(seg)...)
	}
	return tokens
}
