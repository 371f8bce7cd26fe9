package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"fleet-packages/internal/app"
	"fleet-packages/internal/types"
)

func printAuditSummary(out io.Writer, result app.AuditResult) {
	report := result.Report
	_, _ = fmt.Fprintf(out, "tag %s, os release %s, %d nodes\n", report.Tag, report.OSRelease, len(report.Nodes))
	_, _ = fmt.Fprintf(out, "%-10s %8s %8s %10s %8s\n", "bucket", "errors", "warnings", "downgrades", "packages")
	for _, bucket := range types.AllBuckets {
		_, _ = fmt.Fprintf(out, "%-10s %s %s %s %8d\n",
			bucket,
			countCell(report.Errors[bucket], 8, color.RedString),
			countCell(report.Warnings[bucket], 8, color.YellowString),
			countCell(report.Downgrades[bucket], 10, color.MagentaString),
			len(report.Packages[bucket]),
		)
	}
	_, _ = fmt.Fprintf(out, "audited %d packages, %d without findings omitted\n", report.Total, report.Omitted)
	for _, path := range []string{result.OutputPath, result.CSVPath, result.MetricsPath} {
		if path != "" {
			_, _ = fmt.Fprintf(out, "wrote %s\n", path)
		}
	}
	if totalFindings(report.Errors) == 0 {
		_, _ = fmt.Fprintln(out, color.GreenString("no version errors"))
	}
}

// countCell pads before coloring so escape codes do not break alignment.
func countCell(value int, width int, paint func(string, ...interface{}) string) string {
	cell := fmt.Sprintf("%*d", width, value)
	if value == 0 {
		return cell
	}
	return paint("%s", cell)
}

func totalFindings(counts map[types.Bucket]int) int {
	total := 0
	for _, count := range counts {
		total += count
	}
	return total
}
