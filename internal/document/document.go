package document

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// Document is a read-only handle to a paginated PDF source. Page numbers on
// the public API are 1-based throughout.
type Document struct {
	path    string
	pages   int
	fz      *fitz.Document
	tmpFile string // non-empty when the source was downloaded to a temp file
}

// Open resolves ref (filesystem path, file://, http(s):// or s3://) to a
// local PDF and opens it. Remote refs are downloaded to a temp file that is
// removed on Close.
func Open(ctx context.Context, ref string) (*Document, error) {
	localPath, tmp, err := ensureLocal(ctx, ref)
	if err != nil {
		return nil, err
	}

	fz, err := fitz.New(localPath)
	if err != nil {
		if tmp != "" {
			os.Remove(tmp)
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages, err := api.PageCountFile(localPath)
	if err != nil {
		// pdfcpu rejects some real-world files that MuPDF still renders
		log.Warn().Err(err).Str("pdf", localPath).Msg("pdfcpu page count failed, using mupdf count")
		pages = fz.NumPage()
	}
	if pages < 1 {
		fz.Close()
		if tmp != "" {
			os.Remove(tmp)
		}
		return nil, fmt.Errorf("pdf has no pages: %s", ref)
	}

	return &Document{path: localPath, pages: pages, fz: fz, tmpFile: tmp}, nil
}

// Path returns the local filesystem path of the document.
func (d *Document) Path() string { return d.path }

// TotalPages returns the page count.
func (d *Document) TotalPages() int { return d.pages }

// PageText extracts the native text layer of the given page (1-based).
func (d *Document) PageText(page int) (string, error) {
	if page < 1 || page > d.pages {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", page, d.pages)
	}
	text, err := d.fz.Text(page - 1)
	if err != nil {
		return "", fmt.Errorf("extract text page %d: %w", page, err)
	}
	return strings.TrimSpace(text), nil
}

// RenderPage rasterizes the given page (1-based) at the requested DPI.
func (d *Document) RenderPage(page, dpi int) (image.Image, error) {
	if page < 1 || page > d.pages {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, d.pages)
	}
	img, err := d.fz.ImageDPI(page-1, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}

// Close releases the MuPDF handle and removes the temp download, if any.
func (d *Document) Close() error {
	err := d.fz.Close()
	if d.tmpFile != "" {
		os.Remove(d.tmpFile)
	}
	return err
}
