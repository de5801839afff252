package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mevzuatgpt/regproc/internal/config"
)

func testServer(t *testing.T, docs int, limit int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds["email"] == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	})
	mux.HandleFunc("/api/admin/documents", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var skip int
		fmt.Sscanf(r.URL.Query().Get("skip"), "%d", &skip)
		var page []map[string]any
		for i := skip; i < docs && i < skip+limit; i++ {
			page = append(page, map[string]any{"title": fmt.Sprintf("Belge %d", i)})
		}
		json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("/api/admin/documents/bulk-upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(r.MultipartForm.File["files"]) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func clientFor(srv *httptest.Server, limit int) *PortalClient {
	return NewPortalClient(config.PortalAPIConfig{
		BaseURL:      srv.URL,
		Email:        "admin@example.com",
		Password:     "secret",
		PageLimit:    limit,
		MaxListPages: 50,
		ListTimeout:  5 * time.Second,
	})
}

func TestDocumentsPaginates(t *testing.T) {
	srv := testServer(t, 25, 10)
	c := clientFor(srv, 10)
	docs, err := c.Documents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 25 {
		t.Fatalf("got %d documents, want 25", len(docs))
	}
	if docs[24].Title() != "Belge 24" {
		t.Errorf("last title = %q", docs[24].Title())
	}
}

func TestDocumentsLoginFailure(t *testing.T) {
	srv := testServer(t, 5, 10)
	c := clientFor(srv, 10)
	c.email = ""
	if _, err := c.Documents(context.Background()); err == nil {
		t.Fatal("expected login error")
	}
}

func TestDecodeDocumentPageWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
		default:
			fmt.Fprint(w, `{"documents": [{"belge_adi": "Tebliğ"}]}`)
		}
	}))
	defer srv.Close()
	c := NewPortalClient(config.PortalAPIConfig{BaseURL: srv.URL, PageLimit: 100, MaxListPages: 1, ListTimeout: 5 * time.Second})
	docs, err := c.Documents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Title() != "Tebliğ" {
		t.Fatalf("docs = %+v", docs)
	}
}

func TestBulkUpload(t *testing.T) {
	srv := testServer(t, 0, 10)
	c := clientFor(srv, 10)

	dir := t.TempDir()
	pdf := filepath.Join(dir, "01_TEST_1-3.pdf")
	sidecar := filepath.Join(dir, "pdf_sections_metadata.json")
	os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644)
	os.WriteFile(sidecar, []byte(`{"pdf_sections":[]}`), 0o644)

	if err := c.BulkUpload(context.Background(), []string{pdf}, sidecar); err != nil {
		t.Fatal(err)
	}
}
