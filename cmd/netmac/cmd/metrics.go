package cmd

import (
	"log"

	"github.com/anupcshan/netmac/membuf"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type patchMetrics struct {
	registry *prometheus.Registry
	patched  prometheus.Counter
	failures *prometheus.CounterVec
	touched  prometheus.Histogram
}

func newPatchMetrics() *patchMetrics {
	m := &patchMetrics{
		registry: prometheus.NewRegistry(),
		patched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netmac",
			Name:      "images_patched_total",
			Help:      "Firmware images written with a new MAC address",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netmac",
			Name:      "patch_failures_total",
			Help:      "Patch attempts that produced no output, by reason",
		}, []string{"reason"}),
		touched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netmac",
			Name:      "records_touched",
			Help:      "Data records rewritten per patched image",
			Buckets:   []float64{1, 2, 3, 4, 6},
		}),
	}
	m.registry.MustRegister(m.patched, m.failures, m.touched)

	return m
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, membuf.ErrAmbiguousMatch):
		return "ambiguous_match"
	case errors.Is(err, membuf.ErrPatternNotFound):
		return "pattern_not_found"
	case errors.Is(err, membuf.ErrStructuralOverrun):
		return "structural_overrun"
	case errors.Is(err, membuf.ErrMisaligned):
		return "misaligned"
	case errors.Is(err, membuf.ErrInvalidPattern):
		return "invalid_pattern"
	default:
		return "other"
	}
}

func (m *patchMetrics) observe(res *membuf.Result, err error) {
	if err != nil {
		m.failures.WithLabelValues(failureReason(err)).Inc()
		return
	}

	m.patched.Inc()
	m.touched.Observe(float64(len(res.Edits)))
}

// flush writes the registry to the --metrics-file path, if one was given.
func (m *patchMetrics) flush(cmd *cobra.Command) {
	path, _ := cmd.Flags().GetString("metrics-file")
	if path == "" {
		return
	}

	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		log.Printf("Failed to write metrics to %s: %v", path, err)
	}
}
