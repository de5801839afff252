package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/mevzuatgpt/regproc/internal/match"
	"github.com/mevzuatgpt/regproc/internal/scraper"
)

type fakeScraper struct {
	sections []scraper.Section
}

func (f fakeScraper) Scrape(_ context.Context, _ string) ([]scraper.Section, error) {
	return f.sections, nil
}

type fakeInventory struct {
	docs []match.Record
	err  error
}

func (f fakeInventory) Documents(_ context.Context) ([]match.Record, error) {
	return f.docs, f.err
}

func TestScanMarksExactMatches(t *testing.T) {
	s := &Scanner{
		Scraper: fakeScraper{sections: []scraper.Section{{
			Baslik: "Yönetmelikler",
			Documents: []scraper.Document{
				{Baslik: "Sosyal Sigorta İşlemleri Yönetmeliği", Link: "https://example.org/1"},
				{Baslik: "Yeni Tebliğ", Link: "https://example.org/2"},
			},
		}}},
		Portal:   fakeInventory{docs: []match.Record{{"title": "SOSYAL SİGORTA İŞLEMLERİ YÖNETMELİĞİ"}}},
		Metadata: fakeInventory{},
	}
	report, err := s.Scan(context.Background(), "https://kms.kaysis.gov.tr/Home/Kurum/1")
	if err != nil {
		t.Fatal(err)
	}
	if report.Existing != 1 || report.New != 1 {
		t.Fatalf("existing=%d new=%d", report.Existing, report.New)
	}
	if !report.Items[0].Exists || report.Items[0].FoundIn != "portal" {
		t.Errorf("first item should exist in portal: %+v", report.Items[0])
	}
	if report.Items[1].Exists {
		t.Errorf("second item should be new: %+v", report.Items[1])
	}
}

func TestScanFuzzyIsAdvisoryOnly(t *testing.T) {
	s := &Scanner{
		Scraper: fakeScraper{sections: []scraper.Section{{
			Baslik: "Genelgeler",
			Documents: []scraper.Document{
				{Baslik: "genel sağlık sigortası uygulama yönetmeliği", Link: "x"},
			},
		}}},
		Portal: fakeInventory{docs: []match.Record{
			{"title": "genel sağlık sigortası uygulama yönetmeliği ek protokol"},
		}},
	}
	report, err := s.Scan(context.Background(), "u")
	if err != nil {
		t.Fatal(err)
	}
	item := report.Items[0]
	if item.Exists {
		t.Error("fuzzy resemblance must not mark a document as existing")
	}
	if len(item.Similar) != 1 {
		t.Errorf("similar = %v", item.Similar)
	}
}

func TestScanToleratesInventoryFailure(t *testing.T) {
	s := &Scanner{
		Scraper: fakeScraper{sections: []scraper.Section{{
			Baslik:    "Tebliğler",
			Documents: []scraper.Document{{Baslik: "Bir Tebliğ", Link: "x"}},
		}}},
		Portal:   fakeInventory{err: errors.New("connection refused")},
		Metadata: nil,
	}
	report, err := s.Scan(context.Background(), "u")
	if err != nil {
		t.Fatal(err)
	}
	if report.New != 1 {
		t.Errorf("document should count as new when inventories are empty: %+v", report)
	}
}
