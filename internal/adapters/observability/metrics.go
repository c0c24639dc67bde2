package observability

import (
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gestion", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gestion", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gestion", Name: "cache_events_total", Help: "Cache hits/misses/sets/dels."},
		[]string{"cache", "event"}, // event: hit|miss|set|del
	)
	WSSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "gestion", Name: "ws_sessions", Help: "Connected WebSocket staff sessions."},
	)
	WSMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gestion", Name: "ws_messages_total", Help: "WebSocket messages by type and direction."},
		[]string{"type", "direction"}, // direction: in|out
	)
	SweepCancellations = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "gestion", Name: "sweep_cancellations_total", Help: "Reservations auto-cancelled by the expire sweep."},
	)
	LoginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "gestion", Name: "login_failures_total", Help: "Rejected login attempts."},
	)
)

func Serve() {
	addr := os.Getenv("METRICS_ADDR")
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, CacheEvents, WSSessions, WSMessages, SweepCancellations, LoginFailures)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveWSMessage(typ, direction string) {
	WSMessages.WithLabelValues(typ, direction).Inc()
}

func ObserveSweep(n int64) {
	SweepCancellations.Add(float64(n))
}

func ObserveLoginFailure() {
	LoginFailures.Inc()
}
