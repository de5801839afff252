// Package match compares document titles across inventories using a
// Turkish-aware canonical form. Exact matches gate uploads; fuzzy matches
// are advisory only.
package match

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize maps a title to its canonical comparison form: NFC-composed,
// Turkish-lowercased (I -> ı, İ -> i, combined dotted i folded), with
// whitespace collapsed. The function is idempotent.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	// NFC keeps "i" + combining dot above as two runes; fold it first so
	// the lowering below sees plain i.
	s = strings.ReplaceAll(s, "i̇", "i")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case 'I':
			b.WriteRune('ı')
		case 'İ':
			b.WriteRune('i')
		default:
			b.WriteRune(toLowerOne(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func toLowerOne(r rune) rune {
	return []rune(strings.ToLower(string(r)))[0]
}

// TitlesMatch reports whether two titles are the same document name under
// normalization. Only this exact form may suppress an upload.
func TitlesMatch(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// FuzzyMatch reports whether two titles are similar enough to flag for
// review: equal, one contained in the other when both are at least 20
// characters, or sharing the same first 30 characters when both are at
// least 30. The relation is not transitive, so it never drives dedup
// decisions.
func FuzzyMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return true
	}
	ra, rb := []rune(na), []rune(nb)
	if len(ra) >= 20 && len(rb) >= 20 {
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return true
		}
	}
	if len(ra) >= 30 && len(rb) >= 30 {
		if string(ra[:30]) == string(rb[:30]) {
			return true
		}
	}
	return false
}
