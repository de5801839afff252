// Package metadata produces titles, descriptions and keywords for split
// sections, asking the model first and degrading to deterministic text
// derived from the section content.
package metadata

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/ocr"
	"github.com/mevzuatgpt/regproc/internal/section"
)

// Source is a page-addressable document: native text plus rasterization for
// the OCR path.
type Source interface {
	PageText(page int) (string, error)
	ocr.Renderer
}

// Extractor collects the text of a page range, pulling each page through OCR
// when its native layer is empty or when OCR was mandated by the coverage
// verdict.
type Extractor struct {
	DocID        string
	Doc          Source
	Engine       *ocr.Engine
	ForceOCR     bool
	MinPageChars int
	MaxChars     int
}

// RangeText returns the concatenated text of the pages in r, capped at
// MaxChars runes of UTF-8 safe truncation. A page whose native text and OCR
// both fail contributes a placeholder line so downstream prompts keep their
// page structure.
func (e *Extractor) RangeText(r section.Range) string {
	var parts []string
	for page := r.StartPage; page <= r.EndPage; page++ {
		parts = append(parts, e.pageText(page))
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	return truncateRunes(text, e.MaxChars)
}

func (e *Extractor) pageText(page int) string {
	native := ""
	if txt, err := e.Doc.PageText(page); err == nil {
		native = strings.TrimSpace(txt)
	}
	needOCR := e.ForceOCR || len([]rune(native)) < e.MinPageChars
	if !needOCR || e.Engine == nil {
		return native
	}
	if !e.Engine.IsAvailable() {
		if native != "" {
			return native
		}
		return ocr.PlaceholderText(page)
	}
	recognized, err := e.Engine.ExtractPageText(e.DocID, e.Doc, page)
	if err != nil {
		log.Debug().Err(err).Int("page", page).Str("doc", e.DocID).Msg("ocr failed for page, keeping native text")
		if native != "" {
			return native
		}
		return ocr.PlaceholderText(page)
	}
	recognized = strings.TrimSpace(recognized)
	if recognized == "" {
		return native
	}
	return recognized
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
