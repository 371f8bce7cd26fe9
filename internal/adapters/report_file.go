package adapters

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/shared"
	"fleet-packages/internal/types"
)

type ReportFileAdapter struct{}

func NewReportFileAdapter() ReportFileAdapter {
	return ReportFileAdapter{}
}

var csvReportHeader = []string{
	"bucket", "package", "node", "installed", "candidate", "release",
	"status", "action", "target", "maintainer",
	"epoch", "upstream", "debian",
}

func (a ReportFileAdapter) WriteReport(path string, report types.AuditReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal audit report").
			WithCause(err)
	}
	return writeOutputFile(path, data)
}

// WriteCSV writes one row per package and node, buckets in report order.
func (a ReportFileAdapter) WriteCSV(path string, report types.AuditReport) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvReportHeader); err != nil {
		return csvError(err)
	}
	for _, bucket := range types.AllBuckets {
		for _, pkg := range report.Packages[bucket] {
			for _, status := range shared.SortedKeys(pkg.Results) {
				actions := pkg.Results[status]
				for _, action := range shared.SortedKeys(actions) {
					nodes := actions[action]
					for _, node := range shared.SortedKeys(nodes) {
						result := nodes[node]
						row := []string{
							string(bucket), pkg.Name, node,
							result.Installed, result.Candidate, pkg.Release,
							status, action, result.Target, pkg.Maintainer,
							result.Epoch, result.Upstream, result.Debian,
						}
						if err := writer.Write(row); err != nil {
							return csvError(err)
						}
					}
				}
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return csvError(err)
	}
	return writeOutputFile(path, buf.Bytes())
}

func csvError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to encode csv report").
		WithCause(err)
}

func writeOutputFile(path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write output file").
			WithCause(err)
	}
	return nil
}

var _ ports.ReportPort = ReportFileAdapter{}
