package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleet-packages/internal/app"
	"fleet-packages/internal/policies"
)

type showOptions struct {
	RepoIndex           string
	Tag                 string
	CriticalMaintainers []string
}

func newShowCommand() *cobra.Command {
	opts := showOptions{}
	cmd := &cobra.Command{
		Use:   "show PACKAGE...",
		Short: "List indexed versions of packages and the repos carrying them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.RepoIndex, "repo-index", "repo-index.yaml", "Repository index YAML")
	cmd.Flags().StringVar(&opts.Tag, "tag", "", "Tag prefix used to decide ownership")
	cmd.Flags().StringSliceVar(&opts.CriticalMaintainers, "critical-maintainer", policies.DefaultCriticalMaintainers, "Maintainer suffix marking a package as critical")
	_ = viper.BindPFlag("repo_index", cmd.Flags().Lookup("repo-index"))
	return cmd
}

func runShow(ctx context.Context, cmd *cobra.Command, opts showOptions, args []string) error {
	service := newAppService()
	result, err := service.Show(ctx, app.ShowRequest{
		RepoIndexPath:       resolveString(cmd, opts.RepoIndex, "repo_index", "repo-index"),
		Packages:            args,
		Tag:                 opts.Tag,
		CriticalMaintainers: opts.CriticalMaintainers,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, pkg := range result.Packages {
		ownership := string(pkg.Ownership)
		if ownership == "" {
			ownership = "unknown"
		}
		_, _ = fmt.Fprintf(out, "%s (%s)\n", pkg.Name, ownership)
		if len(pkg.Versions) == 0 {
			_, _ = fmt.Fprintln(out, "  not in repo index")
			continue
		}
		for _, version := range pkg.Versions {
			_, _ = fmt.Fprintf(out, "  %s  %s/%s  %s\n", version.Version, version.Section, version.App, version.Maintainer)
			_, _ = fmt.Fprintf(out, "    %s\n", strings.Join(version.Headers, "\n    "))
		}
	}
	return nil
}
