package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/illarion/timelock/internal/core"
	"github.com/illarion/timelock/internal/storage"
)

const namespace = "timelock"

// Metrics owns a private registry with the timelock collectors
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
}

// New creates a registry with the operation counters registered
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Timelock operations by name and result code.",
		}, []string{"operation", "result"}),
	}
	m.registry.MustRegister(m.operations)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveOperation implements core.Observer
func (m *Metrics) ObserveOperation(op string, err error) {
	m.operations.WithLabelValues(op, Result(err)).Inc()
}

// RegisterState adds a collector reporting the state held in db
func (m *Metrics) RegisterState(db *storage.Storage) error {
	if err := m.registry.Register(NewStateCollector(db)); err != nil {
		return fmt.Errorf("failed to register state collector: %w", err)
	}
	return nil
}

// WriteTextfile writes all metrics to path in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Result maps an operation error to a metric label
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := core.CodeOf(err); code != "" {
		return code
	}
	return "error"
}
