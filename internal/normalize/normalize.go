// Package normalize folds free-text answers into a canonical form so that
// equivalent spellings compare equal.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letterFolds maps letters that do not decompose into a base letter plus a
// combining mark.
var letterFolds = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"ı", "i",
	"þ", "th",
)

// Text lowercases s, strips diacritics, folds locale-specific letters, removes
// punctuation and collapses whitespace.
func Text(s string) string {
	// Casers and transform chains are stateful, so each call builds its own.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, cases.Lower(language.Und).String(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	folded = letterFolds.Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped without introducing a word break
		}
	}

	return b.String()
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return Text(a) == Text(b)
}

// Matches reports whether input equals answer or any of the alternatives
// after normalization.
func Matches(input, answer string, alternatives ...string) bool {
	got := Text(input)
	if got == Text(answer) {
		return true
	}
	for _, alt := range alternatives {
		if got == Text(alt) {
			return true
		}
	}
	return false
}
