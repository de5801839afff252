// Package coverage decides whether a PDF carries a usable native text layer
// or is effectively a scanned image that needs OCR.
package coverage

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// PageSource provides page-level access to a paginated document.
type PageSource interface {
	TotalPages() int
	PageText(page int) (string, error)
}

// Config holds the sampling and decision thresholds. Defaults match values
// tuned on Turkish regulatory PDFs; see config.OCRConfig for the env mapping.
type Config struct {
	SamplePages  int     // max pages inspected
	MinPageChars int     // a page "has text" above this many trimmed chars
	MinCoverage  float64 // minimum fraction of text-bearing sampled pages
	MinAvgChars  float64 // minimum average chars per text-bearing page
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{SamplePages: 10, MinPageChars: 10, MinCoverage: 0.3, MinAvgChars: 300}
}

// Report summarizes sampled text extraction over a document.
type Report struct {
	TotalPages      int
	PagesSampled    int
	PagesWithText   int
	TextCoverage    float64
	AvgCharsPerPage float64
	NeedsOCR        bool
}

// ProbeFunc optionally OCRs a single page for a diagnostic log line on
// borderline verdicts. Its result never changes the verdict.
type ProbeFunc func(page int) (string, error)

// Analyzer samples pages and produces a coverage Report.
type Analyzer struct {
	cfg   Config
	probe ProbeFunc
}

// NewAnalyzer creates an Analyzer. Zero-valued config fields fall back to the
// defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	def := DefaultConfig()
	if cfg.SamplePages <= 0 {
		cfg.SamplePages = def.SamplePages
	}
	if cfg.MinPageChars <= 0 {
		cfg.MinPageChars = def.MinPageChars
	}
	if cfg.MinCoverage <= 0 {
		cfg.MinCoverage = def.MinCoverage
	}
	if cfg.MinAvgChars <= 0 {
		cfg.MinAvgChars = def.MinAvgChars
	}
	return &Analyzer{cfg: cfg}
}

// WithProbe attaches a diagnostic OCR probe used on borderline verdicts.
func (a *Analyzer) WithProbe(p ProbeFunc) *Analyzer {
	a.probe = p
	return a
}

// Analyze samples pages of src and reports text coverage. Extraction errors
// on individual pages count the page as having no text; Analyze itself never
// fails.
//
// A document needs OCR when too few sampled pages carry text, or when pages
// do carry text but far too little of it. The density check matters: scanned
// regulations often have extractable section headings over an image body and
// would pass a naive "has some text" test.
func (a *Analyzer) Analyze(src PageSource) Report {
	total := src.TotalPages()
	pages := samplePages(total, a.cfg.SamplePages)

	var withText, totalChars int
	for _, p := range pages {
		text, err := src.PageText(p)
		if err != nil {
			log.Debug().Err(err).Int("page", p).Msg("sample page extraction failed")
			continue
		}
		n := len(strings.TrimSpace(text))
		if n > a.cfg.MinPageChars {
			withText++
			totalChars += n
		}
	}

	rep := Report{
		TotalPages:    total,
		PagesSampled:  len(pages),
		PagesWithText: withText,
	}
	if len(pages) > 0 {
		rep.TextCoverage = float64(withText) / float64(len(pages))
	}
	if withText > 0 {
		rep.AvgCharsPerPage = float64(totalChars) / float64(withText)
	}

	rep.NeedsOCR = withText == 0 ||
		rep.TextCoverage < a.cfg.MinCoverage ||
		(withText > 0 && rep.AvgCharsPerPage < a.cfg.MinAvgChars)

	if a.probe != nil && a.borderline(rep) {
		if txt, err := a.probe(1); err == nil {
			log.Debug().Int("ocr_chars", len(strings.TrimSpace(txt))).
				Float64("coverage", rep.TextCoverage).
				Msg("borderline coverage verdict, exploratory ocr on page 1")
		}
	}

	log.Info().
		Int("total_pages", total).
		Int("sampled", rep.PagesSampled).
		Int("with_text", withText).
		Float64("coverage", rep.TextCoverage).
		Float64("avg_chars", rep.AvgCharsPerPage).
		Bool("needs_ocr", rep.NeedsOCR).
		Msg("coverage analysis completed")

	return rep
}

func (a *Analyzer) borderline(rep Report) bool {
	d := rep.TextCoverage - a.cfg.MinCoverage
	return d > -0.1 && d < 0.1
}

// samplePages picks up to max pages: leading pages, plus a middle cluster of
// 3 and a trailing cluster of 3 for documents longer than max. Returned pages
// are 1-based, sorted and unique.
func samplePages(total, max int) []int {
	if total <= 0 {
		return nil
	}
	if total <= max {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	seen := make(map[int]bool)
	var pages []int
	add := func(p int) {
		if p >= 1 && p <= total && !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}

	lead := max - 6
	if lead < 1 {
		lead = 1
	}
	for p := 1; p <= lead; p++ {
		add(p)
	}
	mid := total / 2
	for p := mid; p < mid+3; p++ {
		add(p)
	}
	for p := total - 2; p <= total; p++ {
		add(p)
	}

	// clusters can interleave on short documents; keep ascending order
	for i := 1; i < len(pages); i++ {
		for j := i; j > 0 && pages[j] < pages[j-1]; j-- {
			pages[j], pages[j-1] = pages[j-1], pages[j]
		}
	}
	return pages
}
