// Package splitter writes one PDF per page range plus a JSON sidecar
// describing the produced sections.
package splitter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/metadata"
	"github.com/mevzuatgpt/regproc/internal/section"
)

// SidecarName is the metadata manifest written next to the split files.
const SidecarName = "pdf_sections_metadata.json"

// Section is one produced split file with its metadata.
type Section struct {
	Index       int      `json:"index"`
	Filename    string   `json:"filename"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	StartPage   int      `json:"start_page"`
	EndPage     int      `json:"end_page"`
	Path        string   `json:"-"`
}

type sidecar struct {
	PDFSections []Section `json:"pdf_sections"`
}

// Splitter cuts a source PDF into per-range files under OutputDir.
type Splitter struct {
	OutputDir string

	// trim is the page-extraction primitive, replaceable in tests.
	trim func(inFile, outFile string, selectedPages []string) error
}

func New(outputDir string) *Splitter {
	return &Splitter{
		OutputDir: outputDir,
		trim: func(inFile, outFile string, selectedPages []string) error {
			return api.TrimFile(inFile, outFile, selectedPages, nil)
		},
	}
}

// Split writes one PDF per range. Ranges that fall outside the document are
// skipped with a log line rather than failing the run; the remaining
// sections keep their original indexes. metas must be parallel to
// s.Ranges.
func (sp *Splitter) Split(srcPath string, totalPages int, s section.Sectioning, metas []metadata.Metadata) ([]Section, error) {
	if len(metas) != len(s.Ranges) {
		return nil, fmt.Errorf("got %d metadata entries for %d ranges", len(metas), len(s.Ranges))
	}
	if err := os.MkdirAll(sp.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	out := make([]Section, 0, len(s.Ranges))
	for i, r := range s.Ranges {
		index := i + 1
		if r.StartPage < 1 || r.EndPage > totalPages || r.EndPage < r.StartPage {
			log.Warn().Str("range", r.String()).Int("total_pages", totalPages).Msg("skipping out-of-range section")
			continue
		}
		meta := metas[i]
		filename := metadata.SectionFileName(index, meta.Title, r)
		dst := filepath.Join(sp.OutputDir, filename)

		if err := sp.trim(srcPath, dst, []string{r.String()}); err != nil {
			return nil, fmt.Errorf("split section %d (%s): %w", index, r, err)
		}
		out = append(out, Section{
			Index:       index,
			Filename:    filename,
			Title:       meta.Title,
			Description: meta.Description,
			Keywords:    meta.Keywords,
			StartPage:   r.StartPage,
			EndPage:     r.EndPage,
			Path:        dst,
		})
		log.Debug().Str("file", filename).Msg("section written")
	}
	return out, nil
}

// WriteSidecar stores the section manifest in OutputDir and returns its
// path.
func (sp *Splitter) WriteSidecar(sections []Section) (string, error) {
	path := filepath.Join(sp.OutputDir, SidecarName)
	data, err := json.MarshalIndent(sidecar{PDFSections: sections}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write sidecar: %w", err)
	}
	return path, nil
}
