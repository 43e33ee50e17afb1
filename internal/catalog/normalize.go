package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a title. Admin input, filename guesses, and user
// queries all pass through it, so its output is the catalog join key.
func Normalize(raw string) string {
	s := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			b.WriteRune(' ')
			continue
		}
		if unicode.In(r, unicode.S, unicode.C) {
			continue
		}
		if isWordRune(r) || r == '(' || r == ')' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(foldLatinMarks(b.String())), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// foldLatinMarks drops combining marks that sit on Latin letters (é -> e).
// Marks on other scripts are part of the letter and are kept.
func foldLatinMarks(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	latinBase := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if !latinBase {
				b.WriteRune(r)
			}
			continue
		}
		latinBase = unicode.Is(unicode.Latin, r)
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// DisplayTitle title-cases a normalized key for rendering.
func DisplayTitle(key string) string {
	// Casers are stateful; one per call.
	return cases.Title(language.Und, cases.NoLower).String(key)
}
