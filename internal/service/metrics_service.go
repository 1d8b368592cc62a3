package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	submissionsTotal    *prometheus.CounterVec
	documentsDownloaded prometheus.Counter
	feedSubscribers     prometheus.GaugeFunc
}

// NewMetricsService registers core Prometheus collectors. feedSubscribers
// may be nil when no feed is wired.
func NewMetricsService(feedSubscribers func() int) *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	submissionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submissions_events_total",
		Help: "Submission lifecycle events by kind",
	}, []string{"event"})

	documentsDownloaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_downloaded_total",
		Help: "Total certificate PDF downloads",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	var subscribers prometheus.GaugeFunc
	if feedSubscribers != nil {
		subscribers = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "feed_subscribers",
			Help: "Active live feed subscribers",
		}, func() float64 {
			return float64(feedSubscribers())
		})
		registry.MustRegister(subscribers)
	}

	registry.MustRegister(requestDuration, requestTotal, submissionsTotal, documentsDownloaded, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		submissionsTotal:    submissionsTotal,
		documentsDownloaded: documentsDownloaded,
		feedSubscribers:     subscribers,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one served request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, label).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, label).Inc()
}

// CountSubmissionEvent increments a lifecycle event counter, e.g.
// created, received, rejected, deleted.
func (m *MetricsService) CountSubmissionEvent(event string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(event).Inc()
}

// CountDocumentDownload increments the served PDF counter.
func (m *MetricsService) CountDocumentDownload() {
	if m == nil {
		return
	}
	m.documentsDownloaded.Inc()
}
