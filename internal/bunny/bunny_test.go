package bunny

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mevzuatgpt/regproc/internal/config"
)

func testClient(srvURL string) *Client {
	return NewClient(config.BunnyConfig{
		APIKey:      "key-abc",
		StorageZone: "mevzuatgpt",
		RegionHost:  srvURL,
		CDNEndpoint: "https://cdn.mevzuatgpt.org",
		Folder:      "portal",
		Timeout:     5 * time.Second,
	})
}

func TestUpload(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotKey = r.Header.Get("AccessKey")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "01_GENELGE_1-5.pdf")
	os.WriteFile(file, []byte("%PDF-1.4 data"), 0o644)

	cdnURL, err := testClient(srv.URL).Upload(context.Background(), file)
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "/mevzuatgpt/portal/01_GENELGE_1-5.pdf" {
		t.Errorf("storage path = %q", gotPath)
	}
	if gotKey != "key-abc" {
		t.Errorf("AccessKey = %q", gotKey)
	}
	if string(gotBody) != "%PDF-1.4 data" {
		t.Errorf("body = %q", gotBody)
	}
	if cdnURL != "https://cdn.mevzuatgpt.org/portal/01_GENELGE_1-5.pdf" {
		t.Errorf("cdn url = %q", cdnURL)
	}
}

func TestUploadRejectsNon201(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "x.pdf")
	os.WriteFile(file, []byte("x"), 0o644)
	if _, err := testClient(srv.URL).Upload(context.Background(), file); err == nil {
		t.Fatal("expected error on non-201 response")
	}
}

func TestDelete(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := testClient(srv.URL).Delete(context.Background(), "01_GENELGE_1-5.pdf"); err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %q", gotMethod)
	}
}
