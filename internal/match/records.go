package match

import "strings"

// titleFields are the inventory record keys that may carry a document name,
// checked in order.
var titleFields = []string{"title", "document_title", "belge_adi", "filename", "pdf_adi"}

// Record is one inventory entry as a loose field map, the shape both the
// portal API and the metadata store return.
type Record map[string]any

// Title returns the first non-empty name field of the record.
func (r Record) Title() string {
	for _, field := range titleFields {
		if v, ok := r[field]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

// ExistsIn reports whether title exactly matches any record in the
// inventory, and returns the matching record when it does.
func ExistsIn(title string, records []Record) (Record, bool) {
	want := Normalize(title)
	for _, rec := range records {
		if t := rec.Title(); t != "" && Normalize(t) == want {
			return rec, true
		}
	}
	return nil, false
}

// FuzzyCandidates returns records whose titles fuzzily resemble title,
// for operator review only.
func FuzzyCandidates(title string, records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if t := rec.Title(); t != "" && !TitlesMatch(title, t) && FuzzyMatch(title, t) {
			out = append(out, rec)
		}
	}
	return out
}
