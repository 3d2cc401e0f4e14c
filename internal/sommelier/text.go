// Package sommelier implements the conversation engine behind the chocolate
// sommelier chat widget: keyword classification, trigger-based flow matching,
// a step-graph walker with sensory accumulation, product re-ranking and the
// fallback dispatch table.
//
// Everything in this package is a pure function of its inputs plus one explicit
// State value that the caller persists between turns. Nothing here performs
// I/O, logs, or keeps mutable package state, so a single Engine can serve any
// number of sessions concurrently. Turns of the same session must still be
// applied in arrival order by the caller.
package sommelier

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s and folds accented letters to their ASCII base
// (ç→c, ğ→g, ı→i, İ→i, ö→o, ş→s, ü→u, â→a, ...). It is total and idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Casers and chained transformers are stateful; build them per call.
	lower := cases.Lower(language.Und).String(s)
	fold := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(foldDotless),
		norm.NFC,
	)
	out, _, err := transform.String(fold, lower)
	if err != nil {
		return lower
	}
	return out
}

// foldDotless maps letters that carry no decomposable mark.
func foldDotless(r rune) rune {
	switch r {
	case 'ı':
		return 'i'
	case 'ß':
		return 's'
	}
	return r
}

// MatchesAny reports whether any keyword, once normalized, is a substring of
// the normalized text. Empty keywords never match.
func MatchesAny(text string, keywords []string) bool {
	t := Normalize(text)
	if t == "" {
		return false
	}
	for _, k := range keywords {
		if k = Normalize(strings.TrimSpace(k)); k != "" && strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// words splits an already normalized string into letter/digit runs.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// runeLen counts runes; word-length thresholds are expressed in characters.
func runeLen(s string) int { return len([]rune(s)) }
