// Package pipeline runs a document end to end: fetch, coverage verdict,
// sectioning, metadata, split, upload. A run always terminates with a
// result; recoverable stage failures degrade the output instead of
// aborting it.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/ai"
	"github.com/mevzuatgpt/regproc/internal/config"
	"github.com/mevzuatgpt/regproc/internal/coverage"
	"github.com/mevzuatgpt/regproc/internal/document"
	"github.com/mevzuatgpt/regproc/internal/metadata"
	"github.com/mevzuatgpt/regproc/internal/metrics"
	"github.com/mevzuatgpt/regproc/internal/ocr"
	"github.com/mevzuatgpt/regproc/internal/section"
	"github.com/mevzuatgpt/regproc/internal/splitter"
	"github.com/mevzuatgpt/regproc/internal/store"
)

// StatusStore receives stage transitions during a run.
type StatusStore interface {
	Advance(ctx context.Context, jobID, state string, progress int, message string) error
}

// FileUploader pushes one split file to CDN storage.
type FileUploader interface {
	Upload(ctx context.Context, filePath string) (string, error)
}

// BulkUploader posts the split set to the portal.
type BulkUploader interface {
	BulkUpload(ctx context.Context, filePaths []string, sidecarPath string) error
}

// Dependencies wires the pipeline. AI, CDN, Portal and Status are optional;
// a nil field disables that stage.
type Dependencies struct {
	Config config.Config
	AI     ai.Client
	CDN    FileUploader
	Portal BulkUploader
	Status StatusStore
}

// Result summarizes a completed run.
type Result struct {
	JobID       string             `json:"job_id"`
	SourceRef   string             `json:"source_ref"`
	TotalPages  int                `json:"total_pages"`
	NeedsOCR    bool               `json:"needs_ocr"`
	Coverage    float64            `json:"text_coverage"`
	Algorithm   string             `json:"sectioning_algorithm"`
	Sections    []splitter.Section `json:"sections"`
	SidecarPath string             `json:"sidecar_path"`
	CDNURLs     []string           `json:"cdn_urls,omitempty"`
	Degraded    bool               `json:"degraded"`
	Notes       []string           `json:"notes,omitempty"`
}

type Pipeline struct {
	deps Dependencies
}

func New(deps Dependencies) *Pipeline {
	return &Pipeline{deps: deps}
}

func (p *Pipeline) advance(ctx context.Context, jobID, state string, progress int, msg string) {
	if p.deps.Status == nil {
		return
	}
	if err := p.deps.Status.Advance(ctx, jobID, state, progress, msg); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Str("state", state).Msg("status update failed")
	}
}

// Process runs the full pipeline for one source reference. Only fetch and
// split failures are fatal; every other stage degrades and is noted on the
// result.
func (p *Pipeline) Process(ctx context.Context, jobID, ref string) (*Result, error) {
	started := time.Now()
	cfg := p.deps.Config
	res := &Result{JobID: jobID, SourceRef: ref}

	p.advance(ctx, jobID, store.StateAnalyzing, 10, "fetching document")
	doc, err := document.Open(ctx, ref)
	if err != nil {
		metrics.IncDocProcessed("failed")
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()
	res.TotalPages = doc.TotalPages()

	report := p.analyzeCoverage(doc, res)
	engine := p.ocrEngine(ctx, jobID, report, res)

	p.advance(ctx, jobID, store.StateSectioning, 40, "determining sections")
	sec := p.sectionize(ctx, doc, res)
	res.Algorithm = sec.Algorithm
	metrics.AddSections(sec.Algorithm, len(sec.Ranges))

	p.advance(ctx, jobID, store.StateMetadata, 55, "generating section metadata")
	metas := p.generateMetadata(ctx, jobID, doc, engine, report.NeedsOCR, sec)

	p.advance(ctx, jobID, store.StateSplitting, 75, "splitting document")
	sp := splitter.New(cfg.OutputDir)
	sections, err := sp.Split(doc.Path(), res.TotalPages, sec, metas)
	if err != nil {
		metrics.IncDocProcessed("failed")
		return nil, fmt.Errorf("split: %w", err)
	}
	res.Sections = sections
	sidecar, err := sp.WriteSidecar(sections)
	if err != nil {
		metrics.IncDocProcessed("failed")
		return nil, fmt.Errorf("sidecar: %w", err)
	}
	res.SidecarPath = sidecar

	p.advance(ctx, jobID, store.StateUploading, 90, "uploading sections")
	p.upload(ctx, res)

	metrics.ObserveProcessing(time.Since(started))
	if res.Degraded {
		metrics.IncDocProcessed("degraded")
	} else {
		metrics.IncDocProcessed("success")
	}
	log.Info().
		Str("job_id", jobID).
		Int("total_pages", res.TotalPages).
		Int("sections", len(res.Sections)).
		Str("algorithm", res.Algorithm).
		Bool("degraded", res.Degraded).
		Dur("took", time.Since(started)).
		Msg("document processed")
	return res, nil
}

func (p *Pipeline) analyzeCoverage(doc *document.Document, res *Result) coverage.Report {
	analyzer := coverage.NewAnalyzer(coverage.Config{
		SamplePages:  p.deps.Config.OCR.SamplePages,
		MinPageChars: p.deps.Config.OCR.MinPageChars,
		MinCoverage:  p.deps.Config.OCR.MinCoverage,
		MinAvgChars:  p.deps.Config.OCR.MinAvgChars,
	})
	report := analyzer.Analyze(doc)
	res.NeedsOCR = report.NeedsOCR
	res.Coverage = report.TextCoverage
	metrics.ObserveCoverage(report.TextCoverage)
	return report
}

// ocrEngine returns a per-run engine when the verdict asks for OCR, or nil
// with a degradation note when recognition is unavailable.
func (p *Pipeline) ocrEngine(ctx context.Context, jobID string, report coverage.Report, res *Result) *ocr.Engine {
	if !report.NeedsOCR {
		return nil
	}
	p.advance(ctx, jobID, store.StateOCR, 25, "native text insufficient, OCR enabled")
	engine := ocr.NewEngine(p.deps.Config.OCR.DPI, p.deps.Config.OCR.Languages)
	if !engine.IsAvailable() {
		res.Degraded = true
		res.Notes = append(res.Notes, "ocr unavailable, native text only")
		log.Warn().Str("job_id", jobID).Msg("ocr required but unavailable, continuing with native text")
		return nil
	}
	return engine
}

func (p *Pipeline) sectionize(ctx context.Context, doc *document.Document, res *Result) section.Sectioning {
	cfg := p.deps.Config.Sectioning
	var sec section.Sectioning
	if p.deps.AI != nil {
		suggester := section.NewSuggester(p.deps.AI, section.SuggesterConfig{
			MinPages:    cfg.MinPages,
			MaxPages:    cfg.MaxPages,
			SampleChars: p.deps.Config.AI.SampleChars,
			MaxSamples:  p.deps.Config.OCR.SamplePages,
			Retry:       p.retryPolicy(),
		})
		sec = suggester.Suggest(ctx, doc)
	} else {
		sec = section.EqualSections(doc.TotalPages(), cfg.MinPages, cfg.MaxPages)
	}
	if err := sec.Validate(doc.TotalPages()); err != nil {
		log.Warn().Err(err).Msg("sectioning invalid after normalization, using fallback split")
		res.Degraded = true
		res.Notes = append(res.Notes, "sectioning fallback used")
		sec = section.FallbackSections(doc.TotalPages(), cfg.FallbackMinPages, cfg.FallbackParts)
	}
	return sec
}

func (p *Pipeline) generateMetadata(ctx context.Context, jobID string, doc *document.Document, engine *ocr.Engine, forceOCR bool, sec section.Sectioning) []metadata.Metadata {
	extractor := &metadata.Extractor{
		DocID:        jobID,
		Doc:          doc,
		Engine:       engine,
		ForceOCR:     forceOCR && engine != nil,
		MinPageChars: p.deps.Config.OCR.MinPageChars,
		MaxChars:     p.deps.Config.AI.MaxSectionChars,
	}
	gen := metadata.NewGenerator(p.deps.AI, p.retryPolicy(), metadata.DefaultLimits())

	metas := make([]metadata.Metadata, len(sec.Ranges))
	for i, r := range sec.Ranges {
		metas[i] = gen.Generate(ctx, i+1, r, extractor.RangeText(r))
	}
	return metas
}

func (p *Pipeline) upload(ctx context.Context, res *Result) {
	if p.deps.CDN != nil {
		for _, s := range res.Sections {
			url, err := p.deps.CDN.Upload(ctx, s.Path)
			if err != nil {
				res.Degraded = true
				res.Notes = append(res.Notes, fmt.Sprintf("cdn upload failed: %s", s.Filename))
				log.Error().Err(err).Str("file", s.Filename).Msg("cdn upload failed")
				continue
			}
			res.CDNURLs = append(res.CDNURLs, url)
		}
	}
	if p.deps.Portal != nil {
		paths := make([]string, len(res.Sections))
		for i, s := range res.Sections {
			paths[i] = s.Path
		}
		if err := p.deps.Portal.BulkUpload(ctx, paths, res.SidecarPath); err != nil {
			res.Degraded = true
			res.Notes = append(res.Notes, "portal bulk upload failed")
			log.Error().Err(err).Msg("portal bulk upload failed")
		}
	}
}

func (p *Pipeline) retryPolicy() ai.RetryPolicy {
	return ai.RetryPolicy{
		MaxAttempts: p.deps.Config.AI.MaxAttempts,
		BaseDelay:   p.deps.Config.AI.RetryBaseDelay,
		Retryable:   ai.IsTransient,
	}
}
