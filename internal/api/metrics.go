package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)
	workflowExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_executions_total",
			Help: "Total number of workflow executions",
		},
		[]string{"status"},
	)
	workflowExecutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "workflow_execution_duration_seconds",
			Help: "Duration of workflow executions",
		},
	)
	documentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "documents_total",
			Help: "Number of uploaded documents",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(workflowExecutionsTotal)
	prometheus.MustRegister(workflowExecutionDuration)
	prometheus.MustRegister(documentsTotal)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request counts and latency per route.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func recordExecution(status string, elapsed time.Duration) {
	workflowExecutionsTotal.WithLabelValues(status).Inc()
	workflowExecutionDuration.Observe(elapsed.Seconds())
}

// StartMetricsUpdater refreshes the documents gauge on a ticker until the
// stop channel closes.
func (s *Server) StartMetricsUpdater(stop <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				count, err := s.db.CountDocuments()
				if err != nil {
					log.Printf("Error updating documents metric: %v", err)
					continue
				}
				documentsTotal.Set(float64(count))
			}
		}
	}()
}
