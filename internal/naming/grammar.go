// Package naming turns a (Field, FieldContext) pair into a NameDecision:
// a valid, unique BEM-convention name, using preservation analysis first,
// then a four-stage generation pipeline, then validation and
// disambiguation. The shape of the grammar itself lives in bemgrammar;
// this package owns transliteration and the generation/validation logic
// layered on top of it.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/fieldbem/pdfrename/internal/bemgrammar"
)

var caser = cases.Lower(language.Und)

// Transliterate folds s toward the BEM segment alphabet: Unicode
// normalization (NFKD) to decompose accents, lowercasing, then squashing
// any run of non-grammar characters to a single hyphen. Used on
// export-value tails and label-derived tokens, which may carry arbitrary
// Unicode from the source PDF.
func Transliterate(s string) string {
	decomposed := norm.NFKD.String(s)
	var stripped strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue // drop combining marks left behind by NFKD
		}
		stripped.WriteRune(r)
	}
	lower := caser.String(stripped.String())

	var out strings.Builder
	lastWasHyphen := true // suppress a leading hyphen
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			out.WriteRune(r)
			lastWasHyphen = false
		default:
			if !lastWasHyphen {
				out.WriteByte('-')
				lastWasHyphen = true
			}
		}
	}
	result := strings.TrimRight(out.String(), "-")
	return result
}

// NormalizeSegment transliterates s and, if the result is empty or starts
// with a digit (invalid as a segment's leading character), falls back to
// fallback.
func NormalizeSegment(s, fallback string) string {
	seg := Transliterate(s)
	if seg == "" || !bemgrammar.ValidSegment(seg) {
		return fallback
	}
	return seg
}

// NormalizeExisting lowercases name, maps each run of spaces/hyphens to a
// single hyphen, keeps underscores as they are and drops any other
// character, for the "improve" preservation path where only
// casing/separator style is wrong.
func NormalizeExisting(name string) string {
	lower := strings.ToLower(name)
	var out strings.Builder
	lastWasSep := false
	for _, r := range lower {
		switch {
		case r == '_':
			out.WriteByte('_')
			lastWasSep = false
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			out.WriteRune(r)
			lastWasSep = false
		case r == ' ' || r == '-':
			if !lastWasSep {
				out.WriteByte('-')
				lastWasSep = true
			}
		}
	}
	return strings.Trim(out.String(), "-")
}
