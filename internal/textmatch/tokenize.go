// internal/textmatch/tokenize.go
package textmatch

import (
	"strings"
	"unicode"
)

// Token is a single word of an answer, carrying both the original substring
// and its normalized form. Position is 1-indexed within the answer.
type Token struct {
	Original   string
	Normalized string
	Position   int
}

// Apostrophes count as word characters so possessives and contractions
// ("Nike's", "I've") stay inside one token and get normalized as a unit.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || isApostrophe(r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

// Tokenize splits raw answer text into ordered word tokens. Runs of letters,
// digits and apostrophes form tokens; every other rune separates and is
// discarded. Empty or all-separator input yields an empty slice, never nil
// tokens. The same text always produces the same token sequence.
func Tokenize(text string) []Token {
	tokens := []Token{}
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		normalized := NormalizeWord(word)
		tokens = append(tokens, Token{
			Original:   word,
			Normalized: normalized,
			Position:   len(tokens) + 1,
		})
	}

	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

// NormalizedWords returns just the normalized forms, in token order. This is
// the stream the position matcher operates on.
func NormalizedWords(tokens []Token) []string {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = tok.Normalized
	}
	return words
}

// NormalizeWord lowercases a word, strips a trailing possessive suffix
// ("'s" or "s'") and removes any remaining apostrophes, so "Nike's" and
// "nike" compare equal and "I've" collapses to "ive". Idempotent.
func NormalizeWord(word string) string {
	w := strings.ToLower(word)
	w = strings.Map(func(r rune) rune {
		if r == '’' {
			return '\''
		}
		return r
	}, w)

	if strings.HasSuffix(w, "'s") || strings.HasSuffix(w, "s'") {
		w = w[:len(w)-2]
	}
	w = strings.ReplaceAll(w, "'", "")

	return w
}

// NormalizeTerm turns a brand, product or competitor name into the normalized
// multi-token search pattern used by the matcher. Names that normalize to
// zero words (empty strings, pure punctuation) return an empty slice and must
// be dropped by the caller.
func NormalizeTerm(name string) []string {
	tokens := Tokenize(name)
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Normalized == "" {
			continue
		}
		words = append(words, tok.Normalized)
	}
	return words
}
