// Package sentiment scores short Danish texts against an AFINN-style lexicon.
package sentiment

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var ErrUnscoreable = errors.New("text cannot be scored")

// Scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	weights   Lexicon
	maxPhrase int
}

func NewScorer(lex Lexicon) *Scorer {
	maxPhrase := 1
	for term := range lex {
		if n := strings.Count(term, " ") + 1; n > maxPhrase {
			maxPhrase = n
		}
	}
	return &Scorer{weights: lex, maxPhrase: maxPhrase}
}

// Score sums lexicon weights over the tokens of text. Multi-word terms are
// matched longest first and consume their tokens.
func (s *Scorer) Score(text string) (float64, error) {
	if !utf8.ValidString(text) {
		return 0, ErrUnscoreable
	}

	tokens := tokenize(normalize(text))

	var total float64
	for i := 0; i < len(tokens); {
		matched := 0
		for n := min(s.maxPhrase, len(tokens)-i); n > 0; n-- {
			if w, ok := s.weights[strings.Join(tokens[i:i+n], " ")]; ok {
				total += w
				matched = n
				break
			}
		}
		if matched == 0 {
			matched = 1
		}
		i += matched
	}
	return total, nil
}

func normalize(text string) string {
	// cases.Caser is stateful, so one per call.
	return cases.Lower(language.Danish).String(norm.NFC.String(text))
}

// tokenize splits on anything that is not a letter, digit or combining mark.
// Apostrophes and hyphens are kept when they join two word characters.
func tokenize(text string) []string {
	runes := []rune(text)
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i, r := range runes {
		switch {
		case isWordRune(r):
			cur.WriteRune(r)
		case (r == '\'' || r == '-' || r == '’') && cur.Len() > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}
