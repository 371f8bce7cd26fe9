package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/types"
)

// MetricsTextfileAdapter writes audit counters in the Prometheus
// textfile collector format. Every write uses a fresh registry so
// repeated audits in one process never mix.
type MetricsTextfileAdapter struct{}

func NewMetricsTextfileAdapter() MetricsTextfileAdapter {
	return MetricsTextfileAdapter{}
}

func newAuditRegistry(report types.AuditReport) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	findings := factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleet_packages_findings",
			Help: "Packages with findings by kind and bucket after escalation.",
		},
		[]string{"kind", "bucket"},
	)
	audited := factory.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_packages_audited_total",
		Help: "Distinct packages seen across the fleet.",
	})
	omitted := factory.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_packages_omitted_total",
		Help: "Packages left out of the report because nothing needs doing.",
	})
	nodes := factory.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_packages_nodes_total",
		Help: "Nodes in the audited inventory.",
	})
	for _, bucket := range types.AllBuckets {
		findings.WithLabelValues("errors", string(bucket)).Set(float64(report.Errors[bucket]))
		findings.WithLabelValues("warnings", string(bucket)).Set(float64(report.Warnings[bucket]))
		findings.WithLabelValues("downgrades", string(bucket)).Set(float64(report.Downgrades[bucket]))
	}
	audited.Set(float64(report.Total))
	omitted.Set(float64(report.Omitted))
	nodes.Set(float64(len(report.Nodes)))
	return registry
}

func (a MetricsTextfileAdapter) WriteMetrics(path string, report types.AuditReport) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("metrics path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create metrics directory").
			WithCause(err)
	}
	if err := prometheus.WriteToTextfile(path, newAuditRegistry(report)); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write metrics textfile").
			WithCause(err)
	}
	return nil
}

var _ ports.MetricsPort = MetricsTextfileAdapter{}
