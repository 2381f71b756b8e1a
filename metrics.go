package ddns

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "ddnsd"

// Metrics counts discovery and update activity.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts      *prometheus.CounterVec
	rounds        *prometheus.CounterVec
	updates       *prometheus.CounterVec
	lastDiscovery prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "endpoint_attempts_total",
			Help:      "Public IP lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "discovery_rounds_total",
			Help:      "Discovery rounds by result.",
		}, []string{"result"}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "profile_updates_total",
			Help:      "Profile updates by result.",
		}, []string{"result"}),
		lastDiscovery: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_discovery_timestamp_seconds",
			Help:      "Unix time of the last successful discovery round.",
		}),
	}
	for _, c := range []prometheus.Collector{m.attempts, m.rounds, m.updates, m.lastDiscovery} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func (m *Metrics) endpointAttempt(endpoint string, err error) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(endpoint, result(err)).Inc()
}

func (m *Metrics) discoveryRound(err error, now time.Time) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.lastDiscovery.Set(float64(now.Unix()))
	}
}

func (m *Metrics) profileUpdate(err error) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(result(err)).Inc()
}
