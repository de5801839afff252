package match

import "strings"

// turkishUpper maps a rune to its Turkish uppercase form.
func turkishUpper(r rune) rune {
	switch r {
	case 'i':
		return 'İ'
	case 'ı':
		return 'I'
	}
	return []rune(strings.ToUpper(string(r)))[0]
}

// turkishLower maps a rune to its Turkish lowercase form.
func turkishLower(r rune) rune {
	switch r {
	case 'I':
		return 'ı'
	case 'İ':
		return 'i'
	}
	return []rune(strings.ToLower(string(r)))[0]
}

// TurkishSentenceCase uppercases only the first letter with Turkish casing
// rules and lowercases the rest.
func TurkishSentenceCase(s string) string {
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		if i == 0 {
			runes[i] = turkishUpper(r)
		} else {
			runes[i] = turkishLower(r)
		}
	}
	return string(runes)
}

// TurkishTitle uppercases the first letter of every word with Turkish
// casing rules and lowercases the rest. Used for display names, never for
// comparison.
func TurkishTitle(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		for j, r := range runes {
			if j == 0 {
				runes[j] = turkishUpper(r)
			} else {
				runes[j] = turkishLower(r)
			}
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
