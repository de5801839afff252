// Package web is the JSON API: scan an institution page, enqueue document
// runs, and report job status.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/metrics"
	"github.com/mevzuatgpt/regproc/internal/pipeline"
	"github.com/mevzuatgpt/regproc/internal/store"
)

// Queue is the API's view of the job queue.
type Queue interface {
	Enqueue(ctx context.Context, payload []byte) error
	IsDocumentDone(ctx context.Context, docKey string) (bool, error)
	Ping(ctx context.Context) error
}

// StatusStore answers job status queries.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
	Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

// API serves the HTTP surface.
type API struct {
	Queue   Queue
	Status  StatusStore
	Scanner *pipeline.Scanner
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.handleHealth)
	mux.HandleFunc("/scan", a.handleScan)
	mux.HandleFunc("/process", a.handleProcess)
	mux.HandleFunc("/status/", a.handleStatus)
	mux.Handle("/metrics", metrics.Handler())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.Queue != nil {
		if err := a.Queue.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scanReq struct {
	URL       string `json:"url"`
	AutoQueue bool   `json:"auto_queue"`
}

// handleScan runs the dedup scan and, when auto_queue is set, enqueues a
// processing job for every new document.
func (a *API) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req scanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		http.Error(w, "invalid json, expected {\"url\": ...}", http.StatusBadRequest)
		return
	}
	report, err := a.Scanner.Scan(r.Context(), req.URL)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("scan failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	var queued []string
	if req.AutoQueue && a.Queue != nil {
		for _, item := range report.Items {
			if item.Exists {
				continue
			}
			if done, _ := a.Queue.IsDocumentDone(r.Context(), item.Link); done {
				continue
			}
			jobID, err := a.enqueue(r.Context(), item.Link, item.Baslik)
			if err != nil {
				log.Error().Err(err).Str("link", item.Link).Msg("enqueue failed")
				continue
			}
			queued = append(queued, jobID)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "queued_jobs": queued})
}

type processReq struct {
	Ref    string `json:"ref"`
	Baslik string `json:"baslik"`
}

func (a *API) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req processReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ref == "" {
		http.Error(w, "invalid json, expected {\"ref\": ...}", http.StatusBadRequest)
		return
	}
	jobID, err := a.enqueue(r.Context(), req.Ref, req.Baslik)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "job_id": jobID})
}

func (a *API) enqueue(ctx context.Context, ref, baslik string) (string, error) {
	jobID := uuid.NewString()
	payload, _ := json.Marshal(pipeline.Job{JobID: jobID, Ref: ref, Baslik: baslik})
	if err := a.Queue.Enqueue(ctx, payload); err != nil {
		return "", err
	}
	if a.Status != nil {
		now := time.Now()
		_ = a.Status.Set(ctx, jobID, store.Status{
			Status:   store.StateQueued,
			Progress: 0,
			Message:  "queued",
			Start:    &now,
			Metadata: map[string]any{"ref": ref, "baslik": baslik},
		})
	}
	log.Info().Str("job_id", jobID).Str("ref", ref).Msg("job enqueued")
	return jobID, nil
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/status/")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	st, ok, err := a.Status.Get(r.Context(), jobID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}
