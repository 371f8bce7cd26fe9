package ports

import "fleet-packages/internal/types"

type ReportPort interface {
	WriteReport(path string, report types.AuditReport) error
	WriteCSV(path string, report types.AuditReport) error
}

type MetricsPort interface {
	WriteMetrics(path string, report types.AuditReport) error
}
