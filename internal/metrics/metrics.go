// Package metrics provides Prometheus metrics for simulation sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the session metrics. A nil *Metrics is valid and records
// nothing, so components can take one optionally.
type Metrics struct {
	registry *prometheus.Registry

	// Generation
	SamplesTotal *prometheus.CounterVec
	TickDuration prometheus.Histogram
	SimSeconds   prometheus.Gauge
	CaseResets   prometheus.Counter

	// Fan-out
	DroppedTotal prometheus.Counter
	Clients      *prometheus.GaugeVec

	// Control
	CommandsTotal *prometheus.CounterVec
}

// New creates the metrics on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SamplesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "physiosim_samples_total",
				Help: "Total number of samples emitted",
			},
			[]string{"modality", "signal"},
		),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "physiosim_tick_duration_seconds",
			Help:    "Wall-clock time spent computing one simulation tick",
			Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
		SimSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "physiosim_sim_time_seconds",
			Help: "Simulated time elapsed in the running scenario",
		}),
		CaseResets: f.NewCounter(prometheus.CounterOpts{
			Name: "physiosim_case_resets_total",
			Help: "Number of times the simulator was rebuilt for a new case",
		}),
		DroppedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "physiosim_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		}),
		Clients: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "physiosim_clients",
				Help: "Connected clients per transport",
			},
			[]string{"transport"},
		),
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "physiosim_commands_total",
				Help: "Control commands received, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSample counts one emitted sample.
func (m *Metrics) ObserveSample(modality, signal string) {
	if m == nil {
		return
	}
	m.SamplesTotal.WithLabelValues(modality, signal).Inc()
}

// ObserveTick records the time spent on one tick and the simulated clock.
func (m *Metrics) ObserveTick(d time.Duration, simTime float64) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
	m.SimSeconds.Set(simTime)
}

// ObserveCaseReset counts a simulator rebuild.
func (m *Metrics) ObserveCaseReset() {
	if m == nil {
		return
	}
	m.CaseResets.Inc()
}

// AddDropped adds n dropped events.
func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.DroppedTotal.Add(float64(n))
}

// SetClients records the client count of a transport.
func (m *Metrics) SetClients(transport string, n int) {
	if m == nil {
		return
	}
	m.Clients.WithLabelValues(transport).Set(float64(n))
}

// ObserveCommand counts a control command by outcome
// ("queued", "duplicate", "invalid", "rejected").
func (m *Metrics) ObserveCommand(commandType, outcome string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(commandType, outcome).Inc()
}
