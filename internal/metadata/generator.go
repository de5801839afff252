package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/ai"
	"github.com/mevzuatgpt/regproc/internal/metrics"
	"github.com/mevzuatgpt/regproc/internal/section"
)

// Limits caps the cleaned metadata fields.
type Limits struct {
	TitleMax       int
	DescriptionMax int
	KeywordsMax    int
}

func DefaultLimits() Limits {
	return Limits{TitleMax: 150, DescriptionMax: 1000, KeywordsMax: 15}
}

// Metadata describes one split section.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// Generator turns section text into Metadata via the model, degrading to
// deterministic fields when the model is unavailable or its output cannot
// be parsed within the retry budget.
type Generator struct {
	client ai.Client
	retry  ai.RetryPolicy
	limits Limits
}

func NewGenerator(client ai.Client, retry ai.RetryPolicy, limits Limits) *Generator {
	if limits.TitleMax <= 0 {
		limits = DefaultLimits()
	}
	return &Generator{client: client, retry: retry, limits: limits}
}

const generateSystemPrompt = `Sen Türk mevzuat belgelerini özetleyen bir asistansın. Verilen bölüm metni için başlık, açıklama ve anahtar kelimeler üret. SADECE geçerli bir JSON nesnesi döndür, başka hiçbir metin ekleme. Alanlar: title (en fazla 150 karakter), description (en fazla 1000 karakter), keywords (en fazla 15 öğe).`

// Generate returns metadata for the section covering r. Sections with no
// extractable text get fixed metadata without a model call.
func (g *Generator) Generate(ctx context.Context, index int, r section.Range, text string) Metadata {
	text = strings.TrimSpace(text)
	if text == "" {
		return Metadata{
			Title:       fmt.Sprintf("Bölüm %d (Sayfa %d-%d)", index, r.StartPage, r.EndPage),
			Description: fmt.Sprintf("Sayfa %d ile %d arasını kapsayan bölümden metin çıkarılamadı.", r.StartPage, r.EndPage),
			Keywords:    []string{},
		}
	}
	if g.client == nil {
		return g.fallback(index, r, text)
	}

	prompt := fmt.Sprintf("Bölüm %d, sayfa %d-%d. Bölüm metni:\n\n%s", index, r.StartPage, r.EndPage, text)

	var meta Metadata
	start := time.Now()
	err := g.retry.Do(ctx, "metadata_generate", func() error {
		resp, err := g.client.Do(ctx, ai.Request{
			System:      generateSystemPrompt,
			Prompt:      prompt,
			MaxTokens:   1500,
			Temperature: 0.3,
		})
		if err != nil {
			metrics.ObserveAI("metadata", "error", time.Since(start))
			return err
		}
		parsed, perr := parseMetadata(resp.Text)
		if perr != nil {
			metrics.ObserveAI("metadata", "malformed", time.Since(start))
			return perr
		}
		meta = parsed
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Int("section", index).Str("range", r.String()).Msg("metadata generation failed, using deterministic fallback")
		return g.fallback(index, r, text)
	}
	metrics.ObserveAI("metadata", "ok", time.Since(start))
	return g.clean(meta, index, r, text)
}

// parseMetadata extracts the first JSON object from the reply.
func parseMetadata(text string) (Metadata, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Metadata{}, fmt.Errorf("%w: no JSON object in reply", ai.ErrMalformedOutput)
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(text[start:end+1]), &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ai.ErrMalformedOutput, err)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return Metadata{}, fmt.Errorf("%w: empty title", ai.ErrMalformedOutput)
	}
	return meta, nil
}

// clean enforces field limits and fills gaps from the fallback fields.
func (g *Generator) clean(meta Metadata, index int, r section.Range, text string) Metadata {
	fb := g.fallback(index, r, text)

	meta.Title = truncateRunes(strings.TrimSpace(meta.Title), g.limits.TitleMax)
	if meta.Title == "" {
		meta.Title = fb.Title
	}
	meta.Description = truncateRunes(strings.TrimSpace(meta.Description), g.limits.DescriptionMax)
	if meta.Description == "" {
		meta.Description = fb.Description
	}

	cleaned := make([]string, 0, len(meta.Keywords))
	seen := make(map[string]bool)
	for _, kw := range meta.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		cleaned = append(cleaned, kw)
		if len(cleaned) == g.limits.KeywordsMax {
			break
		}
	}
	if len(cleaned) == 0 {
		cleaned = fb.Keywords
	}
	meta.Keywords = cleaned
	return meta
}
