// Package metrics exports conformance check outcomes to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/borsh-roundtrip/runner"
)

// Collector counts checks by case and verdict and records output sizes.
// It implements runner.Observer.
type Collector struct {
	checks *prometheus.CounterVec
	output *prometheus.HistogramVec
}

// NewCollector creates the metric vectors and registers them with reg.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "roundtrip",
			Name:      "checks_total",
			Help:      "Conformance checks by case and verdict.",
		}, []string{"case", "verdict"}),
		output: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "roundtrip",
			Name:      "output_bytes",
			Help:      "Size of canonical outputs handed back to the caller.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"case"}),
	}

	cols := []prometheus.Collector{c.checks, c.output}
	for i, col := range cols {
		if err := reg.Register(col); err != nil {
			for _, done := range cols[:i] {
				reg.Unregister(done)
			}
			return nil, err
		}
	}
	return c, nil
}

// Observe records one report.
func (c *Collector) Observe(r *runner.Report) {
	name := r.CaseName()
	c.checks.WithLabelValues(name, r.Verdict.String()).Inc()
	if !r.Fatal() {
		c.output.WithLabelValues(name).Observe(float64(len(r.Output)))
	}
}
