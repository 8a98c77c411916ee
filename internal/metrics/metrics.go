// Package metrics counts secret lookups, configuration resolutions and
// connection attempts. Metrics live in their own registry and are exported
// as a node_exporter textfile, since drdb runs as a short-lived command.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/systmms/drdb/pkg/provider"
)

// Outcome label values.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeAuth     = "auth_error"
	OutcomeError    = "error"
)

// Metrics holds the drdb collectors and the registry they are registered in.
type Metrics struct {
	registry *prometheus.Registry

	secretLookupsTotal   *prometheus.CounterVec
	secretLookupDuration *prometheus.HistogramVec
	resolutionsTotal     *prometheus.CounterVec
	connectionsTotal     *prometheus.CounterVec
}

// New registers every collector in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		secretLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drdb_secret_lookups_total",
				Help: "Total number of secret store lookups",
			},
			[]string{"provider", "outcome"},
		),
		secretLookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drdb_secret_lookup_duration_seconds",
				Help:    "Duration of secret store lookups in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"provider"},
		),
		resolutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drdb_configuration_resolutions_total",
				Help: "Total number of configuration resolutions",
			},
			[]string{"outcome"},
		),
		connectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drdb_connections_total",
				Help: "Total number of database connection attempts",
			},
			[]string{"role", "outcome"},
		),
	}
}

// Registry returns the registry holding the drdb collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordSecretLookup records one lookup against providerName.
func (m *Metrics) RecordSecretLookup(providerName string, err error, durationSeconds float64) {
	m.secretLookupsTotal.WithLabelValues(providerName, Outcome(err)).Inc()
	m.secretLookupDuration.WithLabelValues(providerName).Observe(durationSeconds)
}

// RecordResolution records one GetConfiguration call.
func (m *Metrics) RecordResolution(err error) {
	m.resolutionsTotal.WithLabelValues(Outcome(err)).Inc()
}

// RecordConnection records one connection attempt for role.
func (m *Metrics) RecordConnection(role string, err error) {
	m.connectionsTotal.WithLabelValues(role, Outcome(err)).Inc()
}

// WriteTextfile writes every metric in the text exposition format. The
// file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Outcome maps err to an outcome label value.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}

	var notFound *provider.NotFoundError
	if errors.As(err, &notFound) {
		return OutcomeNotFound
	}
	var authErr provider.AuthError
	if errors.As(err, &authErr) {
		return OutcomeAuth
	}
	return OutcomeError
}
