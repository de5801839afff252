package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mevzuatgpt/regproc/internal/metrics"
	"github.com/mevzuatgpt/regproc/internal/store"
)

// Job is the queue payload for one document run.
type Job struct {
	JobID  string `json:"job_id"`
	Ref    string `json:"ref"`
	Baslik string `json:"baslik,omitempty"`
}

// JobQueue is the worker's view of the queue.
type JobQueue interface {
	Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
	Ack(ctx context.Context, msgID string) error
	AddDLQ(ctx context.Context, payload []byte, reason string) error
	MarkDocumentDone(ctx context.Context, docKey string, ttl time.Duration) error
	Depths(ctx context.Context) (int64, int64, error)
}

// FullStatusStore extends StatusStore with the terminal write.
type FullStatusStore interface {
	StatusStore
	Set(ctx context.Context, jobID string, st store.Status) error
}

// Processor runs one document job.
type Processor interface {
	Process(ctx context.Context, jobID, ref string) (*Result, error)
}

// Worker consumes jobs and runs the pipeline. One worker processes jobs
// sequentially; scale by running more consumers against the same group.
type Worker struct {
	Consumer string
	Queue    JobQueue
	Pipeline Processor
	Status   FullStatusStore
	DoneTTL  time.Duration
}

// Run loops until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	log.Info().Str("consumer", w.Consumer).Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("consumer", w.Consumer).Msg("worker stopping")
			return
		default:
		}
		msgID, payload, err := w.Queue.Dequeue(ctx, w.Consumer, 5*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if msgID == "" {
			w.reportDepths(ctx)
			continue
		}
		w.handle(ctx, msgID, payload)
	}
}

func (w *Worker) handle(ctx context.Context, msgID string, payload []byte) {
	// Ack up front; failures go to the DLQ rather than redelivery.
	if err := w.Queue.Ack(ctx, msgID); err != nil {
		log.Warn().Err(err).Str("msg_id", msgID).Msg("ack failed")
	}

	var job Job
	if err := json.Unmarshal(payload, &job); err != nil || job.Ref == "" {
		log.Error().Err(err).Str("msg_id", msgID).Msg("malformed job payload")
		_ = w.Queue.AddDLQ(ctx, payload, "malformed payload")
		return
	}

	res, err := w.Pipeline.Process(ctx, job.JobID, job.Ref)
	now := time.Now()
	if err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Str("ref", job.Ref).Msg("job failed")
		_ = w.Queue.AddDLQ(ctx, payload, err.Error())
		w.finish(ctx, job.JobID, store.Status{
			Status: store.StateFailed, Progress: 100, Message: err.Error(), End: &now,
		})
		return
	}

	state := store.StateCompleted
	if res.Degraded {
		state = store.StateDegraded
	}
	w.finish(ctx, job.JobID, store.Status{
		Status:   state,
		Progress: 100,
		Message:  "done",
		End:      &now,
		Metadata: map[string]any{
			"total_pages": res.TotalPages,
			"sections":    len(res.Sections),
			"algorithm":   res.Algorithm,
			"notes":       res.Notes,
		},
	})
	ttl := w.DoneTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	_ = w.Queue.MarkDocumentDone(ctx, job.Ref, ttl)
}

func (w *Worker) finish(ctx context.Context, jobID string, st store.Status) {
	if w.Status == nil || jobID == "" {
		return
	}
	if err := w.Status.Set(ctx, jobID, st); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("terminal status write failed")
	}
}

func (w *Worker) reportDepths(ctx context.Context) {
	depth, dlq, err := w.Queue.Depths(ctx)
	if err != nil {
		return
	}
	metrics.SetQueueDepth("stream", depth)
	metrics.SetQueueDepth("dlq", dlq)
}
