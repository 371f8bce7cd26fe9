package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleet-packages/internal/app"
	"fleet-packages/internal/policies"
)

type auditOptions struct {
	Inventory           string
	RepoIndex           string
	Descriptions        string
	ForceTag            string
	ExcludeKeywords     []string
	CriticalMaintainers []string
	Full                bool
	IncludeRaw          bool
	Workers             int
	Output              string
	CSV                 string
	MetricsTextfile     string
}

func newAuditCommand() *cobra.Command {
	opts := auditOptions{}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Compare installed, candidate and release versions across the fleet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAudit(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Inventory, "inventory", "", "Fleet inventory YAML")
	cmd.Flags().StringVar(&opts.RepoIndex, "repo-index", "repo-index.yaml", "Repository index YAML")
	cmd.Flags().StringVar(&opts.Descriptions, "descriptions", "", "Package description CSV")
	cmd.Flags().StringVar(&opts.ForceTag, "force-tag", "", "Release tag searched before the fleet tag")
	cmd.Flags().StringSliceVar(&opts.ExcludeKeywords, "exclude-keywords", app.DefaultExcludeKeywords, "Repo header keywords that disqualify a repo from the baseline")
	cmd.Flags().StringSliceVar(&opts.CriticalMaintainers, "critical-maintainer", policies.DefaultCriticalMaintainers, "Maintainer suffix marking a package as critical")
	cmd.Flags().BoolVar(&opts.Full, "full", false, "Report packages with nothing to do as well")
	cmd.Flags().BoolVar(&opts.IncludeRaw, "include-raw", false, "Include raw apt-cache policy text in the YAML report")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent package workers (0 = number of CPUs)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Write the YAML report to this path")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "Write the CSV report to this path")
	cmd.Flags().StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write Prometheus textfile metrics to this path")

	_ = viper.BindPFlag("inventory", cmd.Flags().Lookup("inventory"))
	_ = viper.BindPFlag("repo_index", cmd.Flags().Lookup("repo-index"))
	_ = viper.BindPFlag("descriptions", cmd.Flags().Lookup("descriptions"))
	_ = viper.BindPFlag("force_tag", cmd.Flags().Lookup("force-tag"))
	_ = viper.BindPFlag("exclude_keywords", cmd.Flags().Lookup("exclude-keywords"))
	_ = viper.BindPFlag("critical_maintainers", cmd.Flags().Lookup("critical-maintainer"))
	_ = viper.BindPFlag("full", cmd.Flags().Lookup("full"))
	_ = viper.BindPFlag("include_raw", cmd.Flags().Lookup("include-raw"))
	_ = viper.BindPFlag("audit_workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("report_output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("report_csv", cmd.Flags().Lookup("csv"))
	_ = viper.BindPFlag("metrics_textfile", cmd.Flags().Lookup("metrics-textfile"))

	return cmd
}

func runAudit(ctx context.Context, cmd *cobra.Command, opts auditOptions) error {
	service := newAppService()
	result, err := service.Audit(ctx, app.AuditRequest{
		InventoryPath:       resolveString(cmd, opts.Inventory, "inventory", "inventory"),
		RepoIndexPath:       resolveString(cmd, opts.RepoIndex, "repo_index", "repo-index"),
		DescriptionsPath:    resolveString(cmd, opts.Descriptions, "descriptions", "descriptions"),
		ForceTag:            resolveString(cmd, opts.ForceTag, "force_tag", "force-tag"),
		ExcludeKeywords:     resolveStrings(cmd, opts.ExcludeKeywords, "exclude_keywords", "exclude-keywords"),
		CriticalMaintainers: resolveStrings(cmd, opts.CriticalMaintainers, "critical_maintainers", "critical-maintainer"),
		Full:                resolveBool(cmd, opts.Full, "full", "full"),
		IncludeRaw:          resolveBool(cmd, opts.IncludeRaw, "include_raw", "include-raw"),
		Workers:             resolveInt(cmd, opts.Workers, "audit_workers", "workers"),
		OutputPath:          resolveString(cmd, opts.Output, "report_output", "output"),
		CSVPath:             resolveString(cmd, opts.CSV, "report_csv", "csv"),
		MetricsPath:         resolveString(cmd, opts.MetricsTextfile, "metrics_textfile", "metrics-textfile"),
	})
	if err != nil {
		return err
	}
	printAuditSummary(cmd.OutOrStdout(), result)
	return nil
}
