package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cutline"

// Metrics records job, transmission and conversion counters.
type Metrics struct {
	registry *prometheus.Registry

	transitions *prometheus.CounterVec
	finished    *prometheus.CounterVec
	active      *prometheus.GaugeVec
	groups      *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	conversions *prometheus.CounterVec
	programSize *prometheus.HistogramVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started:  make(map[string]time.Time),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Job status transitions by target status.",
		}, []string{"device", "status"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs that reached a terminal status.",
		}, []string{"device", "status"}),
		active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Jobs currently owning a device.",
		}, []string{"device"}),
		groups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_sent_total",
			Help:      "Command groups fully written to a device.",
		}, []string{"device"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Command bytes written to a device, excluding initialization.",
		}, []string{"device"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from connecting to a terminal status.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"device", "status"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Batch conversions by dialect and outcome.",
		}, []string{"dialect", "outcome"}),
		programSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "program_bytes",
			Help:      "Size of encoded programs.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		}, []string{"dialect"}),
	}

	m.registry.MustRegister(
		m.transitions, m.finished, m.active, m.groups,
		m.bytes, m.duration, m.conversions, m.programSize,
	)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: m.observeStatus,
		OnGroupSent:    m.observeGroup,
	}
}

// ObserveConversion records the outcome of a batch conversion.
func (m *Metrics) ObserveConversion(dialect string, size int, err error) {
	if err != nil {
		outcome := "error"
		if kind, ok := domain.KindOf(err); ok {
			outcome = string(kind)
		}
		m.conversions.WithLabelValues(dialect, outcome).Inc()
		return
	}
	m.conversions.WithLabelValues(dialect, "ok").Inc()
	m.programSize.WithLabelValues(dialect).Observe(float64(size))
}

func (m *Metrics) observeStatus(_ context.Context, e *domain.StatusEvent) {
	m.transitions.WithLabelValues(e.Device, string(e.To)).Inc()

	if e.To == domain.StatusConnecting {
		m.active.WithLabelValues(e.Device).Inc()
		m.mu.Lock()
		m.started[e.JobID] = e.Timestamp
		m.mu.Unlock()
		return
	}
	if !e.To.Terminal() {
		return
	}

	m.finished.WithLabelValues(e.Device, string(e.To)).Inc()

	m.mu.Lock()
	start, ok := m.started[e.JobID]
	delete(m.started, e.JobID)
	m.mu.Unlock()

	// Jobs failed before connecting never counted as active.
	if ok {
		m.active.WithLabelValues(e.Device).Dec()
		m.duration.WithLabelValues(e.Device, string(e.To)).Observe(e.Timestamp.Sub(start).Seconds())
	}
}

func (m *Metrics) observeGroup(_ context.Context, e *domain.GroupEvent) {
	m.groups.WithLabelValues(e.Device).Inc()
	m.bytes.WithLabelValues(e.Device).Add(float64(e.Bytes))
}
