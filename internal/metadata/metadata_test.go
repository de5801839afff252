package metadata

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mevzuatgpt/regproc/internal/ai"
	"github.com/mevzuatgpt/regproc/internal/section"
)

type scriptedClient struct {
	replies []string
	errs    []error
	calls   int
}

func (s *scriptedClient) Name() string { return "scripted" }
func (s *scriptedClient) Do(_ context.Context, _ ai.Request) (ai.Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return ai.Response{}, s.errs[i]
	}
	if i < len(s.replies) {
		return ai.Response{Text: s.replies[i]}, nil
	}
	return ai.Response{Text: ""}, nil
}

func testPolicy() ai.RetryPolicy {
	return ai.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, Retryable: ai.IsTransient}
}

func TestGenerateParsesModelReply(t *testing.T) {
	client := &scriptedClient{replies: []string{
		`{"title": "Sigortalılık Esasları", "description": "Sigortalılık sürelerine ilişkin hükümler.", "keywords": ["sigorta", "prim", "sigorta", ""]}`,
	}}
	g := NewGenerator(client, testPolicy(), DefaultLimits())
	meta := g.Generate(context.Background(), 1, section.Range{StartPage: 1, EndPage: 5}, "sigortalılık süreleri hakkında metin")
	if meta.Title != "Sigortalılık Esasları" {
		t.Errorf("title = %q", meta.Title)
	}
	if len(meta.Keywords) != 2 {
		t.Errorf("keywords should be deduped and cleaned: %v", meta.Keywords)
	}
}

func TestGenerateEmptyTextSkipsModel(t *testing.T) {
	client := &scriptedClient{}
	g := NewGenerator(client, testPolicy(), DefaultLimits())
	meta := g.Generate(context.Background(), 3, section.Range{StartPage: 11, EndPage: 15}, "   ")
	if client.calls != 0 {
		t.Fatalf("model called %d times for empty text", client.calls)
	}
	if !strings.Contains(meta.Title, "Bölüm 3") {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Keywords == nil {
		t.Error("keywords should be an empty slice, not nil")
	}
}

func TestGenerateFallsBackOnMalformedReplies(t *testing.T) {
	client := &scriptedClient{replies: []string{"düz metin cevap", "yine JSON değil"}}
	g := NewGenerator(client, testPolicy(), DefaultLimits())
	text := "yönetmelik uygulama esasları yönetmelik kapsamındaki kurumlar yönetmelik"
	meta := g.Generate(context.Background(), 2, section.Range{StartPage: 6, EndPage: 10}, text)
	if client.calls != 2 {
		t.Fatalf("calls = %d, want full retry budget", client.calls)
	}
	if meta.Title == "" || meta.Description == "" {
		t.Fatalf("fallback fields missing: %+v", meta)
	}
	if len(meta.Keywords) == 0 || meta.Keywords[0] != "yönetmelik" {
		t.Errorf("most frequent word should lead keywords: %v", meta.Keywords)
	}
}

func TestGenerateEnforcesLimits(t *testing.T) {
	longTitle := strings.Repeat("a", 400)
	client := &scriptedClient{replies: []string{
		`{"title": "` + longTitle + `", "description": "x", "keywords": []}`,
	}}
	g := NewGenerator(client, testPolicy(), DefaultLimits())
	meta := g.Generate(context.Background(), 1, section.Range{StartPage: 1, EndPage: 2}, "kısa metin örneği burada")
	if got := len([]rune(meta.Title)); got != 150 {
		t.Errorf("title length = %d, want 150", got)
	}
}

func TestFallbackTitleFromLeadingWords(t *testing.T) {
	text := "SOSYAL SİGORTALAR VE GENEL SAĞLIK SİGORTASI KANUNU uygulamasına ilişkin usul ve esaslar bu bölümde düzenlenmiştir ek açıklamalar devam eder"
	g := NewGenerator(nil, testPolicy(), DefaultLimits())
	meta := g.fallback(1, section.Range{StartPage: 1, EndPage: 4}, text)
	if len([]rune(meta.Title)) > 100 {
		t.Errorf("fallback title too long: %q", meta.Title)
	}
	if !strings.HasPrefix(meta.Title, "SOSYAL SİGORTALAR") {
		t.Errorf("title should start with leading words: %q", meta.Title)
	}
}

func TestExtractKeywordsSkipsStopwordsAndShortWords(t *testing.T) {
	text := "prim prim prim için için borçlanma borçlanma ek bir ve"
	kws := extractKeywords(text, 10)
	for _, kw := range kws {
		if kw == "için" || kw == "ve" || kw == "bir" || kw == "ek" {
			t.Errorf("keyword list contains excluded word %q: %v", kw, kws)
		}
	}
	if len(kws) == 0 || kws[0] != "prim" {
		t.Errorf("expected prim first: %v", kws)
	}
}

func TestExtractKeywordsLettersOnly(t *testing.T) {
	// Statute numbers and dates repeat constantly in legal text but must
	// never rank as keywords.
	text := "5510 sayılı kanun 5510 5510 31.05.2006 uygulaması kanun"
	kws := extractKeywords(text, 10)
	for _, kw := range kws {
		if kw == "5510" || kw == "31.05.2006" {
			t.Errorf("numeric token %q ranked as keyword: %v", kw, kws)
		}
	}
	if len(kws) == 0 || kws[0] != "kanun" {
		t.Errorf("expected kanun first: %v", kws)
	}
}

func TestSectionFileName(t *testing.T) {
	got := SectionFileName(3, "Sigortalılık İşlemleri: Genel Esaslar", section.Range{StartPage: 12, EndPage: 18})
	want := "03_SIGORTALILIK_ISLEMLERI_GENEL_ESASLAR_12-18.pdf"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSectionFileNameEmptyTitle(t *testing.T) {
	got := SectionFileName(1, "???", section.Range{StartPage: 1, EndPage: 5})
	if got != "01_BOLUM_1-5.pdf" {
		t.Errorf("got %q", got)
	}
}

func TestTransliterate(t *testing.T) {
	if got := Transliterate("çğıöşü ÇĞİÖŞÜ"); got != "cgiosu CGIOSU" {
		t.Errorf("got %q", got)
	}
}
