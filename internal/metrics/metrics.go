// Package metrics provides Prometheus instrumentation for the cart engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CartComputations counts full cart recomputations, partitioned by result.
	CartComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocommerce_cart_computations_total",
		Help: "Total cart recomputations",
	}, []string{"result"})

	// OrdersTotal counts order submissions by result.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocommerce_orders_total",
		Help: "Total order submissions",
	}, []string{"result"})

	// PaymentsTotal counts payment submissions by provider and result.
	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocommerce_payments_total",
		Help: "Total payment submissions",
	}, []string{"provider", "result"})

	// SettingsRefreshTotal counts settings refresh attempts by result.
	SettingsRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocommerce_settings_refresh_total",
		Help: "Total settings refresh attempts",
	}, []string{"result"})

	// VatLookupsTotal counts VAT number lookups by outcome (cached, valid,
	// invalid, error).
	VatLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocommerce_vat_lookups_total",
		Help: "Total VAT number lookups",
	}, []string{"outcome"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gocommerce_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gocommerce_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
