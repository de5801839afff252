package pipeline

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/match"
	"github.com/mevzuatgpt/regproc/internal/scraper"
)

// PageScraper lists the documents published on an institution page.
type PageScraper interface {
	Scrape(ctx context.Context, pageURL string) ([]scraper.Section, error)
}

// Inventory lists already-known documents.
type Inventory interface {
	Documents(ctx context.Context) ([]match.Record, error)
}

// Scanner compares a scraped institution page against the portal and
// metadata inventories and reports which documents are new. Only an exact
// normalized title match marks a document as existing; fuzzy resemblance
// is surfaced for review but never suppresses anything.
type Scanner struct {
	Scraper  PageScraper
	Portal   Inventory
	Metadata Inventory
}

// ScanItem is the per-document verdict.
type ScanItem struct {
	Section string   `json:"section"`
	Baslik  string   `json:"baslik"`
	Link    string   `json:"link"`
	Exists  bool     `json:"exists"`
	FoundIn string   `json:"found_in,omitempty"`
	Similar []string `json:"similar,omitempty"`
}

// ScanReport is the full page verdict.
type ScanReport struct {
	PageURL  string     `json:"page_url"`
	Sections int        `json:"sections"`
	Total    int        `json:"total_documents"`
	New      int        `json:"new_documents"`
	Existing int        `json:"existing_documents"`
	Items    []ScanItem `json:"items"`
}

// Scan builds the dedup report for one institution page. An inventory that
// cannot be listed is treated as empty so a scan still completes; the gap
// is logged.
func (s *Scanner) Scan(ctx context.Context, pageURL string) (*ScanReport, error) {
	sections, err := s.Scraper.Scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	portalDocs := s.listInventory(ctx, "portal", s.Portal)
	metaDocs := s.listInventory(ctx, "metadata", s.Metadata)

	report := &ScanReport{PageURL: pageURL, Sections: len(sections)}
	for _, sec := range sections {
		for _, doc := range sec.Documents {
			item := ScanItem{Section: sec.Baslik, Baslik: doc.Baslik, Link: doc.Link}
			if _, ok := match.ExistsIn(doc.Baslik, portalDocs); ok {
				item.Exists = true
				item.FoundIn = "portal"
			} else if _, ok := match.ExistsIn(doc.Baslik, metaDocs); ok {
				item.Exists = true
				item.FoundIn = "metadata"
			} else {
				for _, cand := range match.FuzzyCandidates(doc.Baslik, portalDocs) {
					item.Similar = append(item.Similar, cand.Title())
				}
				for _, cand := range match.FuzzyCandidates(doc.Baslik, metaDocs) {
					item.Similar = append(item.Similar, cand.Title())
				}
			}
			if item.Exists {
				report.Existing++
			} else {
				report.New++
			}
			report.Total++
			report.Items = append(report.Items, item)
		}
	}
	log.Info().
		Str("url", pageURL).
		Int("total", report.Total).
		Int("new", report.New).
		Int("existing", report.Existing).
		Msg("scan completed")
	return report, nil
}

func (s *Scanner) listInventory(ctx context.Context, name string, inv Inventory) []match.Record {
	if inv == nil {
		return nil
	}
	docs, err := inv.Documents(ctx)
	if err != nil {
		log.Warn().Err(err).Str("inventory", name).Msg("inventory unavailable, treating as empty")
		return nil
	}
	return docs
}
