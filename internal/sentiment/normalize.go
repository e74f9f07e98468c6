package sentiment

import (
	"strings"
	"unicode"
)

// NormalizedText is the tokenized form of a raw input. Raw is kept because the
// model strategy runs its own preprocessing on the original text.
type NormalizedText struct {
	Raw     string
	Tokens  []string
	Cleaned string
}

// Normalize lower-cases text, drops every rune that is neither a word character
// (letter, number, underscore) nor whitespace and splits on whitespace runs.
// Token order and repetition are preserved. No stemming, no stop-word removal.
func Normalize(text string) (NormalizedText, error) {
	if strings.TrimSpace(text) == "" {
		return NormalizedText{}, ValidationError("empty text")
	}

	stripped := strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(text))

	tokens := strings.Fields(stripped)

	return NormalizedText{
		Raw:     text,
		Tokens:  tokens,
		Cleaned: strings.Join(tokens, " "),
	}, nil
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}
