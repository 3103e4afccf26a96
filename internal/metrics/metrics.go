// Package metrics exposes Prometheus collectors for the background service.
// All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	cycleDuration  *prometheus.HistogramVec
	channelResults *prometheus.CounterVec
	actions        *prometheus.CounterVec
	serviceRunning prometheus.Gauge
	lastCycle      prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "multitool_poll_cycles_total",
				Help: "Poll cycles run, by trigger (startup, timer, manual).",
			},
			[]string{"trigger"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "multitool_poll_cycle_duration_seconds",
				Help:    "Wall time of a poll cycle.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"trigger"},
		),
		channelResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "multitool_channel_checks_total",
				Help: "Per-channel poll outcomes.",
			},
			[]string{"state"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "multitool_actions_total",
				Help: "Install/update/uninstall actions, by action and result.",
			},
			[]string{"action", "result"},
		),
		serviceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "multitool_background_service_running",
			Help: "1 while the background scheduler is running.",
		}),
		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "multitool_last_poll_timestamp_seconds",
			Help: "Unix time the last poll cycle finished.",
		}),
	}
	m.Registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.channelResults,
		m.actions,
		m.serviceRunning,
		m.lastCycle,
		prometheus.NewGoCollector(),
	)
	return m
}

// CycleCompleted records one finished poll cycle.
func (m *Metrics) CycleCompleted(trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(trigger).Inc()
	m.cycleDuration.WithLabelValues(trigger).Observe(d.Seconds())
	m.lastCycle.SetToCurrentTime()
}

// ChannelChecked records the outcome state of one channel.
func (m *Metrics) ChannelChecked(state string) {
	if m == nil {
		return
	}
	m.channelResults.WithLabelValues(state).Inc()
}

// Action records an install/update/uninstall attempt.
func (m *Metrics) Action(action string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.actions.WithLabelValues(action, result).Inc()
}

// SetRunning mirrors the scheduler state.
func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	if running {
		m.serviceRunning.Set(1)
	} else {
		m.serviceRunning.Set(0)
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
