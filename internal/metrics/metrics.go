// Package metrics exposes Prometheus counters for the ingestion pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the daemon records. All fields are safe
// for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal        prometheus.Counter
	CallbacksRejected prometheus.Counter
	LinesClassified   *prometheus.CounterVec
	SamplesCollected  prometheus.Counter
	Measurements      prometheus.Counter
	SavesTotal        prometheus.Counter
	SaveFailures      prometheus.Counter
	LookupFailures    prometheus.Counter
}

// New builds a metrics set on its own registry so tests can create
// independent instances without double-registration panics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_scans_total",
			Help: "Face-scan events accepted from the access controller.",
		}),
		CallbacksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_callbacks_rejected_total",
			Help: "Callback bodies dropped as malformed or non-face events.",
		}),
		LinesClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bmistation_scale_lines_total",
			Help: "Scale telemetry lines by classification result.",
		}, []string{"kind"}),
		SamplesCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_samples_collected_total",
			Help: "Samples accumulated while a sampling session is active.",
		}),
		Measurements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_measurements_total",
			Help: "Averaged measurements completed by the sampler.",
		}),
		SavesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_saves_total",
			Help: "Measurements successfully stored via the remote API.",
		}),
		SaveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_save_failures_total",
			Help: "Save attempts rejected by or unreachable at the remote API.",
		}),
		LookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bmistation_lookup_failures_total",
			Help: "Person or history lookups that returned no data.",
		}),
	}

	m.registry.MustRegister(
		m.ScansTotal,
		m.CallbacksRejected,
		m.LinesClassified,
		m.SamplesCollected,
		m.Measurements,
		m.SavesTotal,
		m.SaveFailures,
		m.LookupFailures,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
