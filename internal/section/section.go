// Package section decides how a document is cut into page ranges, either by
// an equal-split heuristic or by normalizing ranges proposed by the model.
package section

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Range is a contiguous, inclusive 1-based page span.
type Range struct {
	StartPage int    `json:"start_page"`
	EndPage   int    `json:"end_page"`
	Reason    string `json:"reason,omitempty"`
}

// Pages returns the number of pages covered by the range.
func (r Range) Pages() int { return r.EndPage - r.StartPage + 1 }

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.StartPage, r.EndPage)
}

// Sectioning is the outcome of a sectioning decision: a full, ordered,
// gap-free cover of the document plus the algorithm that produced it.
type Sectioning struct {
	Ranges    []Range `json:"ranges"`
	Algorithm string  `json:"algorithm"`
}

// Algorithm labels recorded in Sectioning and on metrics.
const (
	AlgorithmEqual    = "equal_split"
	AlgorithmAI       = "ai_suggested"
	AlgorithmFallback = "fallback"
)

// Validate checks that the ranges exactly cover pages 1..totalPages with no
// gaps, overlaps, or inversions.
func (s Sectioning) Validate(totalPages int) error {
	if len(s.Ranges) == 0 {
		return fmt.Errorf("no ranges")
	}
	expected := 1
	for i, r := range s.Ranges {
		if r.StartPage != expected {
			return fmt.Errorf("range %d starts at page %d, expected %d", i, r.StartPage, expected)
		}
		if r.EndPage < r.StartPage {
			return fmt.Errorf("range %d inverted: %s", i, r)
		}
		expected = r.EndPage + 1
	}
	if last := s.Ranges[len(s.Ranges)-1]; last.EndPage != totalPages {
		return fmt.Errorf("last range ends at page %d, document has %d", last.EndPage, totalPages)
	}
	return nil
}

// EqualSections splits totalPages into consecutive ranges of near-equal
// size. Documents that fit within maxPages become a single section. The
// target size is the midpoint of [minPages, maxPages]; any remainder is
// spread one extra page at a time across the earliest sections.
func EqualSections(totalPages, minPages, maxPages int) Sectioning {
	if totalPages < 1 {
		return Sectioning{Algorithm: AlgorithmEqual}
	}
	if minPages < 1 {
		minPages = 1
	}
	if maxPages < minPages {
		maxPages = minPages
	}
	if totalPages <= maxPages {
		return Sectioning{
			Ranges:    []Range{{StartPage: 1, EndPage: totalPages, Reason: "single section"}},
			Algorithm: AlgorithmEqual,
		}
	}

	ideal := (minPages + maxPages) / 2
	count := (totalPages + ideal - 1) / ideal
	base := totalPages / count
	remainder := totalPages % count

	ranges := make([]Range, 0, count)
	start := 1
	for i := 0; i < count; i++ {
		size := base
		if i < remainder {
			size++
		}
		if size < minPages {
			size = minPages
		}
		if size > maxPages {
			size = maxPages
		}
		end := start + size - 1
		if end > totalPages {
			end = totalPages
		}
		if start > totalPages {
			break
		}
		ranges = append(ranges, Range{StartPage: start, EndPage: end})
		start = end + 1
	}
	// Clamping can leave a tail short of the document end; absorb it into
	// the last range.
	if n := len(ranges); n > 0 && ranges[n-1].EndPage != totalPages {
		ranges[n-1].EndPage = totalPages
	}
	return Sectioning{Ranges: ranges, Algorithm: AlgorithmEqual}
}

// NormalizeProposed rewrites model-proposed ranges into a valid cover of
// 1..totalPages. Starts are chained to the expected next page, ends are
// clamped into [start, totalPages], degenerate ranges are dropped, and the
// final range is extended to the document end. An empty result after
// normalization falls back to equal sections.
func NormalizeProposed(proposed []Range, totalPages, minPages, maxPages int) Sectioning {
	expected := 1
	normalized := make([]Range, 0, len(proposed))
	for _, r := range proposed {
		if expected > totalPages {
			break
		}
		start := expected
		end := r.EndPage
		if end > totalPages {
			end = totalPages
		}
		if end < start {
			log.Debug().Str("proposed", r.String()).Int("expected_start", expected).Msg("dropping degenerate proposed range")
			continue
		}
		normalized = append(normalized, Range{StartPage: start, EndPage: end, Reason: r.Reason})
		expected = end + 1
	}
	if len(normalized) == 0 {
		log.Warn().Int("proposed", len(proposed)).Msg("no usable proposed ranges, using equal split")
		return EqualSections(totalPages, minPages, maxPages)
	}
	if last := len(normalized) - 1; normalized[last].EndPage < totalPages {
		normalized[last].EndPage = totalPages
	}
	return Sectioning{Ranges: normalized, Algorithm: AlgorithmAI}
}

// FallbackSections is the coarse split used when suggestion and validation
// both fail: fixed-size chunks of at least minPages, aiming for parts
// sections.
func FallbackSections(totalPages, minPages, parts int) Sectioning {
	if totalPages < 1 {
		return Sectioning{Algorithm: AlgorithmFallback}
	}
	if parts < 1 {
		parts = 1
	}
	pagesPer := totalPages / parts
	if pagesPer < minPages {
		pagesPer = minPages
	}
	if pagesPer < 1 {
		pagesPer = 1
	}
	ranges := make([]Range, 0, parts)
	for start := 1; start <= totalPages; start += pagesPer {
		end := start + pagesPer - 1
		if end > totalPages {
			end = totalPages
		}
		ranges = append(ranges, Range{StartPage: start, EndPage: end})
	}
	return Sectioning{Ranges: ranges, Algorithm: AlgorithmFallback}
}
