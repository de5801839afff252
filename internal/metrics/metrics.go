package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	aiReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regproc",
			Name:      "ai_requests_total",
			Help:      "Total AI analysis requests by kind (suggest, metadata) and result",
		},
		[]string{"kind", "result"},
	)

	aiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regproc",
			Name:      "ai_request_duration_seconds",
			Help:      "Duration of AI requests by kind",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	docsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regproc",
			Name:      "documents_processed_total",
			Help:      "Documents processed by result (success, degraded, failed)",
		},
		[]string{"result"},
	)

	sectionsProduced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regproc",
			Name:      "sections_produced_total",
			Help:      "Split sections produced, labeled by sectioning algorithm",
		},
		[]string{"algorithm"},
	)

	ocrPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regproc",
			Name:      "ocr_pages_total",
			Help:      "Pages run through OCR by result (hit counts cache hits)",
		},
		[]string{"result"},
	)

	textCoverage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "regproc",
			Name:      "text_coverage_ratio",
			Help:      "Native text coverage ratio observed per analyzed document",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	processingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "regproc",
			Name:      "processing_duration_seconds",
			Help:      "End-to-end document processing duration",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "regproc",
			Name:      "queue_depth",
			Help:      "Queue depth gauges for stream and dlq",
		},
		[]string{"type"},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(aiReqs, aiLatency, docsProcessed, sectionsProduced, ocrPages, textCoverage, processingDuration, queueDepth)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveAI(kind, result string, dur time.Duration) {
	aiReqs.WithLabelValues(kind, result).Inc()
	aiLatency.WithLabelValues(kind).Observe(dur.Seconds())
}

func IncDocProcessed(result string) { docsProcessed.WithLabelValues(result).Inc() }

func AddSections(algorithm string, n int) {
	sectionsProduced.WithLabelValues(algorithm).Add(float64(n))
}

func IncOCRPage(result string) { ocrPages.WithLabelValues(result).Inc() }

func ObserveCoverage(ratio float64) { textCoverage.Observe(ratio) }

func ObserveProcessing(dur time.Duration) { processingDuration.Observe(dur.Seconds()) }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }
