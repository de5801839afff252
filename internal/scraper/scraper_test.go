package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mevzuatgpt/regproc/internal/config"
)

const fixtureHTML = `<!DOCTYPE html>
<html><body>
<div id="accordion2" class="panel-group">
  <div class="panel panel-default">
    <div class="panel-heading">
      <h4 class="panel-title">Yönetmelikler <span class="badge">2</span></h4>
    </div>
    <div class="panel-collapse collapse">
      <div class="panel-body">
        <a href="/Dokuman/12345">Sosyal Sigorta İşlemleri Yönetmeliği</a>
        <a href="https://kms.kaysis.gov.tr/Dokuman/67890">Genel Sağlık Sigortası Yönetmeliği</a>
      </div>
    </div>
  </div>
  <div class="panel panel-default">
    <div class="panel-heading"><h4>Tebliğler <span class="badge">0</span></h4></div>
    <div class="panel-collapse collapse"><div class="panel-body"></div></div>
  </div>
</div>
</body></html>`

func TestParseFixture(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixtureHTML))
	if err != nil {
		t.Fatal(err)
	}
	sections := Parse(doc, "https://kms.kaysis.gov.tr/Home/Kurum/22620739")
	if len(sections) != 2 {
		t.Fatalf("got %d sections", len(sections))
	}
	if sections[0].Baslik != "Yönetmelikler" {
		t.Errorf("badge not stripped from heading: %q", sections[0].Baslik)
	}
	if len(sections[0].Documents) != 2 {
		t.Fatalf("got %d documents", len(sections[0].Documents))
	}
	if got := sections[0].Documents[0].Link; got != "https://kms.kaysis.gov.tr/Dokuman/12345" {
		t.Errorf("relative link not resolved: %q", got)
	}
	if got := sections[0].Documents[1].Link; got != "https://kms.kaysis.gov.tr/Dokuman/67890" {
		t.Errorf("absolute link mangled: %q", got)
	}
	if len(sections[1].Documents) != 0 {
		t.Errorf("empty panel should have no documents: %+v", sections[1].Documents)
	}
}

func TestScrapeSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(fixtureHTML))
	}))
	defer srv.Close()

	s := New(config.ScraperConfig{UserAgent: "regproc-test", Timeout: 5 * time.Second})
	sections, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != "regproc-test" {
		t.Errorf("user agent = %q", gotUA)
	}
	if len(sections) != 2 {
		t.Errorf("got %d sections", len(sections))
	}
}

func TestScrapeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	s := New(config.ScraperConfig{Timeout: 5 * time.Second})
	if _, err := s.Scrape(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
}
