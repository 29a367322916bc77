// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundingdesk_http_requests_total",
		Help: "HTTP requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fundingdesk_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	attachmentsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundingdesk_attachments_added_total",
		Help: "Documents stored and referenced, by kind.",
	}, []string{"kind"})

	attachmentsRemoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundingdesk_attachments_removed_total",
		Help: "Document references removed, by kind.",
	}, []string{"kind"})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundingdesk_downloads_total",
		Help: "Documents served, by kind.",
	}, []string{"kind"})

	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fundingdesk_download_bytes_total",
		Help: "Bytes of document content written to clients.",
	})

	accessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fundingdesk_access_denied_total",
		Help: "Funding request operations refused by the access policy, by action.",
	}, []string{"action"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency. Routes are labelled by
// their chi pattern (/api/funding-requests/{id}) so record ids never
// become label values.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// AttachmentsAdded counts n documents stored under kind.
func AttachmentsAdded(kind string, n int) {
	if n > 0 {
		attachmentsAdded.WithLabelValues(kind).Add(float64(n))
	}
}

// AttachmentRemoved counts one removed reference.
func AttachmentRemoved(kind string) {
	attachmentsRemoved.WithLabelValues(kind).Inc()
}

// Download counts one served document and its bytes.
func Download(kind string, bytes int64) {
	downloadsTotal.WithLabelValues(kind).Inc()
	if bytes > 0 {
		downloadBytesTotal.Add(float64(bytes))
	}
}

// AccessDenied counts one refused operation.
func AccessDenied(action string) {
	accessDenied.WithLabelValues(action).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
