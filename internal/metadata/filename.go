package metadata

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mevzuatgpt/regproc/internal/section"
)

var asciiFold = map[rune]rune{
	'ç': 'c', 'Ç': 'C',
	'ğ': 'g', 'Ğ': 'G',
	'ı': 'i', 'İ': 'I',
	'ö': 'o', 'Ö': 'O',
	'ş': 's', 'Ş': 'S',
	'ü': 'u', 'Ü': 'U',
}

// SectionFileName builds the output name for a split section:
// "01_UPPERCASED_TITLE_3-7.pdf". The title is transliterated to ASCII,
// uppercased, and reduced to letters, digits and underscores.
func SectionFileName(index int, title string, r section.Range) string {
	name := Transliterate(title)
	name = strings.ToUpper(name)

	var b strings.Builder
	lastUnderscore := true
	for _, c := range name {
		switch {
		case unicode.IsLetter(c) && c < 128, unicode.IsDigit(c):
			b.WriteRune(c)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	cleaned := strings.Trim(b.String(), "_")
	if cleaned == "" {
		cleaned = "BOLUM"
	}
	if len(cleaned) > 60 {
		cleaned = strings.Trim(cleaned[:60], "_")
	}
	return fmt.Sprintf("%02d_%s_%d-%d.pdf", index, cleaned, r.StartPage, r.EndPage)
}

// Transliterate maps Turkish letters to their ASCII counterparts, leaving
// everything else intact.
func Transliterate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		if folded, ok := asciiFold[c]; ok {
			b.WriteRune(folded)
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
