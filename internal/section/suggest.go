package section

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/ai"
	"github.com/mevzuatgpt/regproc/internal/metrics"
)

// PageSampler yields the text of a single page for prompt sampling.
type PageSampler interface {
	TotalPages() int
	PageText(page int) (string, error)
}

// SuggesterConfig bounds the suggestion prompt and the resulting split.
type SuggesterConfig struct {
	MinPages    int
	MaxPages    int
	SampleChars int
	MaxSamples  int
	Retry       ai.RetryPolicy
}

// Suggester asks the model for logical section boundaries and normalizes
// whatever comes back into a valid cover. It never fails: every error path
// degrades to the equal-split heuristic.
type Suggester struct {
	client ai.Client
	cfg    SuggesterConfig
}

func NewSuggester(client ai.Client, cfg SuggesterConfig) *Suggester {
	if cfg.MaxSamples < 1 {
		cfg.MaxSamples = 10
	}
	if cfg.SampleChars < 1 {
		cfg.SampleChars = 500
	}
	return &Suggester{client: client, cfg: cfg}
}

const suggestSystemPrompt = `Sen bir mevzuat belgesi analiz asistanısın. Sana bir PDF belgesinin sayfa örnekleri verilecek. Belgeyi mantıksal bölümlere ayıran sayfa aralıkları öner. SADECE geçerli bir JSON dizisi döndür, başka hiçbir metin ekleme. Her öğe şu alanları içermeli: start_page, end_page, reason.`

// Suggest returns an AI-derived sectioning for the document, or the equal
// split when the model is unavailable, rate limited beyond the retry
// budget, or returns output that cannot be parsed.
func (s *Suggester) Suggest(ctx context.Context, doc PageSampler) Sectioning {
	total := doc.TotalPages()
	if s.client == nil {
		return EqualSections(total, s.cfg.MinPages, s.cfg.MaxPages)
	}

	prompt := s.buildPrompt(doc)

	var proposed []Range
	err := s.cfg.Retry.Do(ctx, "section_suggest", func() error {
		resp, err := s.client.Do(ctx, ai.Request{
			System:      suggestSystemPrompt,
			Prompt:      prompt,
			MaxTokens:   2000,
			Temperature: 0.1,
		})
		if err != nil {
			metrics.ObserveAI("suggest", "error", 0)
			return err
		}
		parsed, perr := parseProposedRanges(resp.Text)
		if perr != nil {
			metrics.ObserveAI("suggest", "malformed", 0)
			return perr
		}
		proposed = parsed
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int("total_pages", total).Msg("section suggestion failed, using equal split")
		return EqualSections(total, s.cfg.MinPages, s.cfg.MaxPages)
	}
	metrics.ObserveAI("suggest", "ok", 0)
	return NormalizeProposed(proposed, total, s.cfg.MinPages, s.cfg.MaxPages)
}

// truncateRunes cuts on a rune boundary so Turkish characters in page
// samples are never split mid-encoding.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func (s *Suggester) buildPrompt(doc PageSampler) string {
	total := doc.TotalPages()
	step := 1
	if total > s.cfg.MaxSamples {
		step = (total + s.cfg.MaxSamples - 1) / s.cfg.MaxSamples
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Belge toplam %d sayfa. Sayfa örnekleri:\n\n", total)
	for page := 1; page <= total; page += step {
		text, err := doc.PageText(page)
		if err != nil {
			continue
		}
		text = truncateRunes(strings.TrimSpace(text), s.cfg.SampleChars)
		fmt.Fprintf(&b, "--- Sayfa %d ---\n%s\n\n", page, text)
	}
	fmt.Fprintf(&b, "Bu belgeyi mantıksal bölümlere ayır. JSON dizisi döndür: [{\"start_page\": 1, \"end_page\": 5, \"reason\": \"...\"}]")
	return b.String()
}

// parseProposedRanges extracts the first JSON array from the model reply
// and decodes it. Anything else is malformed output, which the retry policy
// treats as transient within the attempt budget.
func parseProposedRanges(text string) ([]Range, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ai.ErrMalformedOutput)
	}
	var ranges []Range
	if err := json.Unmarshal([]byte(text[start:end+1]), &ranges); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: empty range array", ai.ErrMalformedOutput)
	}
	return ranges, nil
}
