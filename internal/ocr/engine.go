// Package ocr extracts text from scanned PDF pages by rasterizing them and
// running Tesseract over the result.
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/metrics"
)

var (
	// ErrRendererUnavailable means the page could not be rasterized.
	ErrRendererUnavailable = errors.New("page rendering backend unavailable")
	// ErrRecognizerUnavailable means Tesseract or its language data is missing.
	ErrRecognizerUnavailable = errors.New("text recognition backend unavailable")
)

// Renderer rasterizes one page of a document at the given DPI. Page numbers
// are 1-based.
type Renderer interface {
	RenderPage(page, dpi int) (image.Image, error)
}

type cacheKey struct {
	doc  string
	page int
}

// Engine runs OCR with a per-run result cache. It is not safe for concurrent
// use; each document-processing run owns its own Engine.
type Engine struct {
	dpi       int
	langs     []string
	cache     map[cacheKey]string
	probeOnce sync.Once
	probeErr  error
	profile   string // resolved tesseract language profile, e.g. "tur+eng"

	// seams for tests
	listLangs func() ([]string, error)
	recognize func(img image.Image, profile string) (string, error)
}

// NewEngine creates an Engine rendering at dpi and recognizing with the given
// preferred languages (in priority order). 300 DPI is the working minimum for
// small Turkish legal-text fonts with diacritics.
func NewEngine(dpi int, langs []string) *Engine {
	if dpi <= 0 {
		dpi = 300
	}
	if len(langs) == 0 {
		langs = []string{"tur"}
	}
	return &Engine{
		dpi:       dpi,
		langs:     langs,
		cache:     make(map[cacheKey]string),
		listLangs: gosseract.GetAvailableLanguages,
		recognize: recognizeTesseract,
	}
}

// IsAvailable reports whether the recognition toolchain is usable. The probe
// runs once per Engine; later calls return the cached verdict.
func (e *Engine) IsAvailable() bool {
	e.probe()
	return e.probeErr == nil
}

func (e *Engine) probe() {
	e.probeOnce.Do(func() {
		installed, err := e.listLangs()
		if err != nil {
			e.probeErr = fmt.Errorf("%w: %v", ErrRecognizerUnavailable, err)
			log.Warn().Err(err).
				Msg("tesseract unavailable; install with: apt-get install tesseract-ocr tesseract-ocr-tur")
			return
		}
		have := make(map[string]bool, len(installed))
		for _, l := range installed {
			have[l] = true
		}
		var matched []string
		for _, l := range e.langs {
			if have[l] {
				matched = append(matched, l)
			}
		}
		switch {
		case len(matched) > 0:
			// combined profile when several language models are installed
			e.profile = strings.Join(matched, "+")
		case len(installed) > 0:
			e.profile = installed[0]
			log.Warn().Strs("wanted", e.langs).Str("using", e.profile).
				Msg("preferred ocr languages not installed")
		default:
			e.probeErr = fmt.Errorf("%w: no language data installed", ErrRecognizerUnavailable)
			log.Warn().
				Msg("tesseract has no language data; install with: apt-get install tesseract-ocr-tur")
		}
	})
}

// ExtractPageText renders page (1-based) of the document identified by docID
// and recognizes its text. Results are cached per (docID, page).
func (e *Engine) ExtractPageText(docID string, r Renderer, page int) (string, error) {
	key := cacheKey{doc: docID, page: page}
	if text, ok := e.cache[key]; ok {
		metrics.IncOCRPage("hit")
		return text, nil
	}

	e.probe()
	if e.probeErr != nil {
		return "", e.probeErr
	}

	img, err := r.RenderPage(page, e.dpi)
	if err != nil {
		metrics.IncOCRPage("render_error")
		return "", fmt.Errorf("%w: %v", ErrRendererUnavailable, err)
	}

	text, err := e.recognize(img, e.profile)
	if err != nil {
		metrics.IncOCRPage("ocr_error")
		return "", fmt.Errorf("%w: %v", ErrRecognizerUnavailable, err)
	}

	text = strings.TrimSpace(text)
	e.cache[key] = text
	metrics.IncOCRPage("ok")
	log.Debug().Str("doc", docID).Int("page", page).Int("chars", len(text)).Msg("ocr page done")
	return text, nil
}

func recognizeTesseract(img image.Image, profile string) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(strings.Split(profile, "+")...); err != nil {
		return "", fmt.Errorf("set language %q: %w", profile, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	return client.Text()
}

// ClearCache drops all cached page texts.
func (e *Engine) ClearCache() { e.cache = make(map[cacheKey]string) }

// CacheSize returns the number of cached page texts.
func (e *Engine) CacheSize() int { return len(e.cache) }

// PlaceholderText is substituted for a page whose text could not be
// extracted by any means.
func PlaceholderText(page int) string {
	return fmt.Sprintf("[page %d: extraction failed]", page)
}
