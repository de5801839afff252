// Package scraper extracts the regulation listing from a KAYSİS institution
// page: accordion panels of named sections, each holding document links.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/config"
)

// Document is one linked regulation on the page.
type Document struct {
	Baslik string `json:"baslik"`
	Link   string `json:"link"`
}

// Section is one accordion panel with its documents.
type Section struct {
	Baslik    string     `json:"baslik"`
	Documents []Document `json:"documents"`
}

// Scraper fetches and parses institution pages.
type Scraper struct {
	http      *http.Client
	userAgent string
}

func New(cfg config.ScraperConfig) *Scraper {
	return &Scraper{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
	}
}

// Scrape downloads pageURL and returns its sections.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) ([]Section, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	sections := Parse(doc, pageURL)
	log.Info().Str("url", pageURL).Int("sections", len(sections)).Msg("institution page scraped")
	return sections, nil
}

// Parse walks the #accordion2 panel group. Each panel heading names a
// section; the badge span carries the document count and is stripped.
// Relative document links are resolved against pageURL.
func Parse(doc *goquery.Document, pageURL string) []Section {
	base, _ := url.Parse(pageURL)

	var sections []Section
	doc.Find("#accordion2 .panel").Each(func(_ int, panel *goquery.Selection) {
		heading := panel.Find(".panel-heading").First().Clone()
		heading.Find("span.badge").Remove()
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			return
		}

		var docs []Document
		panel.Find(".panel-body a[href], .panel-collapse a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			name := strings.TrimSpace(a.Text())
			if href == "" || name == "" {
				return
			}
			docs = append(docs, Document{Baslik: name, Link: resolveLink(base, href)})
		})
		sections = append(sections, Section{Baslik: title, Documents: docs})
	})
	return sections
}

func resolveLink(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
