package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ErlanBelekov/boss-notifier/internal/health"
)

var (
	// Scheduling core

	RebuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "rebuilds_total",
		Help:      "Total schedule rebuilds, by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	RebuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bossnotify",
		Name:      "rebuild_duration_seconds",
		Help:      "Time to fetch a snapshot and rebuild the timer registry.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	TimersInstalledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "timers_installed_total",
		Help:      "Timers armed by rebuilds and single schedules.",
	})

	TimersSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "timers_skipped_total",
		Help:      "Entities skipped because their fire time was not in the future.",
	})

	TimersFiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "timers_fired_total",
		Help:      "Timers that reached their fire time.",
	})

	PendingTimers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bossnotify",
		Name:      "pending_timers",
		Help:      "Timers currently armed in the registry.",
	})

	// Delivery

	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "notifications_total",
		Help:      "Notification deliveries, by channel and outcome.",
	}, []string{"channel", "outcome"})

	// Chat commands

	CommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "commands_total",
		Help:      "Inbound chat commands, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bossnotify",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bossnotify",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		RebuildsTotal,
		RebuildDuration,
		TimersInstalledTotal,
		TimersSkippedTotal,
		TimersFiredTotal,
		PendingTimers,
		NotificationsTotal,
		CommandsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer exposes /metrics plus liveness and readiness probes.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
