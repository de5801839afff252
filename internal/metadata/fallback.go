package metadata

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/mevzuatgpt/regproc/internal/section"
)

// Turkish function words excluded from frequency-derived keywords.
var turkishStopwords = map[string]bool{
	"veya": true, "için": true, "ile": true, "olan": true, "olarak": true,
	"gibi": true, "daha": true, "sonra": true, "önce": true, "kadar": true,
	"göre": true, "ancak": true, "ayrıca": true, "ilgili": true, "dair": true,
	"hakkında": true, "üzere": true, "tarafından": true, "madde": true,
	"fıkra": true, "bent": true, "sayılı": true, "tarihli": true,
	"this": true, "that": true, "with": true, "from": true, "have": true,
}

// fallback builds metadata deterministically from the section text: the
// leading words become the title, the most frequent content words become
// keywords, and the description is templated.
func (g *Generator) fallback(index int, r section.Range, text string) Metadata {
	return Metadata{
		Title:       fallbackTitle(text),
		Description: truncateRunes(fmt.Sprintf("Belgenin %d. ile %d. sayfaları arasındaki bölüm. İçerik özeti: %s", r.StartPage, r.EndPage, firstWords(text, 30)), 500),
		Keywords:    extractKeywords(text, 10),
	}
}

func fallbackTitle(text string) string {
	title := firstWords(text, 15)
	if title == "" {
		title = "Başlıksız Bölüm"
	}
	return truncateRunes(title, 100)
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// extractKeywords ranks alphabetic words longer than three runes by
// frequency, skipping stopwords, and returns up to max of them in
// descending frequency order. Statute numbers and dates repeat heavily in
// legal text but make useless keywords, so non-letter tokens are excluded.
func extractKeywords(text string, max int) []string {
	freq := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]{}\"'«»")
		if len([]rune(word)) <= 3 || !isAlphabetic(word) || turkishStopwords[word] {
			continue
		}
		freq[word]++
	}
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > max {
		words = words[:max]
	}
	return words
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
