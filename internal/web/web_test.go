package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mevzuatgpt/regproc/internal/match"
	"github.com/mevzuatgpt/regproc/internal/pipeline"
	"github.com/mevzuatgpt/regproc/internal/scraper"
	"github.com/mevzuatgpt/regproc/internal/store"
)

type memQueue struct {
	payloads [][]byte
	done     map[string]bool
}

func (q *memQueue) Enqueue(_ context.Context, p []byte) error {
	q.payloads = append(q.payloads, p)
	return nil
}
func (q *memQueue) IsDocumentDone(_ context.Context, key string) (bool, error) {
	return q.done[key], nil
}
func (q *memQueue) Ping(_ context.Context) error { return nil }

type memStatus struct {
	byID map[string]store.Status
}

func (s *memStatus) Set(_ context.Context, id string, st store.Status) error {
	if s.byID == nil {
		s.byID = map[string]store.Status{}
	}
	s.byID[id] = st
	return nil
}
func (s *memStatus) Get(_ context.Context, id string) (store.Status, bool, error) {
	st, ok := s.byID[id]
	return st, ok, nil
}

type stubScraper struct{ sections []scraper.Section }

func (s stubScraper) Scrape(_ context.Context, _ string) ([]scraper.Section, error) {
	return s.sections, nil
}

type emptyInventory struct{}

func (emptyInventory) Documents(_ context.Context) ([]match.Record, error) { return nil, nil }

func newTestAPI() (*API, *memQueue, *memStatus) {
	q := &memQueue{done: map[string]bool{}}
	st := &memStatus{}
	api := &API{
		Queue:  q,
		Status: st,
		Scanner: &pipeline.Scanner{
			Scraper: stubScraper{sections: []scraper.Section{{
				Baslik:    "Yönetmelikler",
				Documents: []scraper.Document{{Baslik: "Yeni Yönetmelik", Link: "https://example.org/doc.pdf"}},
			}}},
			Portal:   emptyInventory{},
			Metadata: emptyInventory{},
		},
	}
	return api, q, st
}

func serve(api *API, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProcessEnqueuesAndTracks(t *testing.T) {
	api, q, st := newTestAPI()
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{"ref": "file:///tmp/a.pdf"}`))
	rec := serve(api, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["job_id"] == "" {
		t.Fatal("missing job_id")
	}
	if len(q.payloads) != 1 {
		t.Fatalf("payloads = %d", len(q.payloads))
	}
	var job pipeline.Job
	json.Unmarshal(q.payloads[0], &job)
	if job.Ref != "file:///tmp/a.pdf" || job.JobID != resp["job_id"] {
		t.Errorf("job = %+v", job)
	}
	if got := st.byID[resp["job_id"]].Status; got != store.StateQueued {
		t.Errorf("initial state = %q", got)
	}
}

func TestProcessRejectsBadBody(t *testing.T) {
	api, _, _ := newTestAPI()
	rec := serve(api, httptest.NewRequest(http.MethodPost, "/process", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestScanAutoQueue(t *testing.T) {
	api, q, _ := newTestAPI()
	body := `{"url": "https://kms.kaysis.gov.tr/Home/Kurum/1", "auto_queue": true}`
	rec := serve(api, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		QueuedJobs []string `json:"queued_jobs"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.QueuedJobs) != 1 || len(q.payloads) != 1 {
		t.Fatalf("queued = %v payloads = %d", resp.QueuedJobs, len(q.payloads))
	}
}

func TestScanSkipsAlreadyDone(t *testing.T) {
	api, q, _ := newTestAPI()
	q.done["https://example.org/doc.pdf"] = true
	body := `{"url": "u", "auto_queue": true}`
	rec := serve(api, httptest.NewRequest(http.MethodPost, "/scan", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if len(q.payloads) != 0 {
		t.Errorf("already-done document was enqueued")
	}
}

func TestStatusNotFound(t *testing.T) {
	api, _, _ := newTestAPI()
	rec := serve(api, httptest.NewRequest(http.MethodGet, "/status/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestStatusRoundTrip(t *testing.T) {
	api, _, st := newTestAPI()
	st.Set(context.Background(), "j9", store.Status{Status: store.StateSectioning, Progress: 40})
	rec := serve(api, httptest.NewRequest(http.MethodGet, "/status/j9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var got store.Status
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Status != store.StateSectioning || got.Progress != 40 {
		t.Errorf("status = %+v", got)
	}
}
