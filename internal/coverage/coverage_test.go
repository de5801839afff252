package coverage

import (
	"errors"
	"strings"
	"testing"
)

// fakeSource serves canned per-page text.
type fakeSource struct {
	total int
	text  map[int]string
	errs  map[int]error
}

func (f fakeSource) TotalPages() int { return f.total }
func (f fakeSource) PageText(page int) (string, error) {
	if err := f.errs[page]; err != nil {
		return "", err
	}
	return f.text[page], nil
}

func richSource(total int) fakeSource {
	src := fakeSource{total: total, text: map[int]string{}}
	for p := 1; p <= total; p++ {
		src.text[p] = strings.Repeat("madde hükümleri ", 40)
	}
	return src
}

func TestAnalyzeNativeTextDocument(t *testing.T) {
	rep := NewAnalyzer(DefaultConfig()).Analyze(richSource(8))
	if rep.NeedsOCR {
		t.Errorf("text-rich document flagged for OCR: %+v", rep)
	}
	if rep.TextCoverage != 1.0 {
		t.Errorf("coverage = %v", rep.TextCoverage)
	}
}

func TestAnalyzeScannedDocument(t *testing.T) {
	src := fakeSource{total: 10, text: map[int]string{}}
	rep := NewAnalyzer(DefaultConfig()).Analyze(src)
	if !rep.NeedsOCR {
		t.Errorf("empty document not flagged for OCR: %+v", rep)
	}
	if rep.PagesWithText != 0 {
		t.Errorf("pages with text = %d", rep.PagesWithText)
	}
}

func TestAnalyzeLowCoverage(t *testing.T) {
	// One text page out of ten sampled is below the 0.3 coverage floor.
	src := fakeSource{total: 10, text: map[int]string{
		1: strings.Repeat("içindekiler ", 50),
	}}
	rep := NewAnalyzer(DefaultConfig()).Analyze(src)
	if !rep.NeedsOCR {
		t.Errorf("1/10 coverage should need OCR: %+v", rep)
	}
}

func TestAnalyzeHeadingsOnlyDocument(t *testing.T) {
	// Every page has a short heading: coverage is perfect but density is
	// far below the average-chars floor.
	src := fakeSource{total: 6, text: map[int]string{}}
	for p := 1; p <= 6; p++ {
		src.text[p] = "BİRİNCİ BÖLÜM Genel Esaslar"
	}
	rep := NewAnalyzer(DefaultConfig()).Analyze(src)
	if !rep.NeedsOCR {
		t.Errorf("headings-only document should need OCR: %+v", rep)
	}
	if rep.PagesWithText != 6 {
		t.Errorf("pages with text = %d", rep.PagesWithText)
	}
}

func TestAnalyzePageErrorsCountAsNoText(t *testing.T) {
	src := richSource(5)
	src.errs = map[int]error{2: errors.New("damaged page"), 3: errors.New("damaged page")}
	rep := NewAnalyzer(DefaultConfig()).Analyze(src)
	if rep.PagesWithText != 3 {
		t.Errorf("pages with text = %d, want 3", rep.PagesWithText)
	}
}

func TestSamplePagesShortDocument(t *testing.T) {
	pages := samplePages(4, 10)
	if len(pages) != 4 {
		t.Fatalf("pages = %v", pages)
	}
	for i, p := range pages {
		if p != i+1 {
			t.Fatalf("pages = %v", pages)
		}
	}
}

func TestSamplePagesLongDocument(t *testing.T) {
	pages := samplePages(100, 10)
	if len(pages) != 10 {
		t.Fatalf("got %d pages: %v", len(pages), pages)
	}
	for i := 1; i < len(pages); i++ {
		if pages[i] <= pages[i-1] {
			t.Fatalf("pages not strictly ascending: %v", pages)
		}
	}
	// Lead pages 1-4, a cluster at the middle, a cluster at the end.
	if pages[0] != 1 || pages[len(pages)-1] != 100 {
		t.Errorf("pages = %v", pages)
	}
	has := func(p int) bool {
		for _, q := range pages {
			if q == p {
				return true
			}
		}
		return false
	}
	if !has(50) {
		t.Errorf("middle cluster missing: %v", pages)
	}
}

func TestSamplePagesDeduplicatesClusters(t *testing.T) {
	// On short-but-over-max documents the clusters overlap; pages must
	// stay unique.
	pages := samplePages(11, 10)
	seen := map[int]bool{}
	for _, p := range pages {
		if seen[p] {
			t.Fatalf("duplicate page %d in %v", p, pages)
		}
		seen[p] = true
	}
}

func TestBorderlineProbeIsDiagnosticOnly(t *testing.T) {
	src := fakeSource{total: 10, text: map[int]string{
		1: strings.Repeat("a", 500),
		2: strings.Repeat("b", 500),
		3: strings.Repeat("c", 500),
	}}
	probed := false
	a := NewAnalyzer(DefaultConfig()).WithProbe(func(page int) (string, error) {
		probed = true
		return "ocr text", nil
	})
	rep := a.Analyze(src)
	if !probed {
		t.Error("borderline verdict should trigger the probe")
	}
	without := NewAnalyzer(DefaultConfig()).Analyze(src)
	if rep.NeedsOCR != without.NeedsOCR {
		t.Error("probe changed the verdict")
	}
}
