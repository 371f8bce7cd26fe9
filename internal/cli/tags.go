package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fleet-packages/internal/app"
)

type tagsOptions struct {
	RepoIndex string
}

func newTagsCommand() *cobra.Command {
	opts := tagsOptions{}
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List release tags present in the repository index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTags(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.RepoIndex, "repo-index", "repo-index.yaml", "Repository index YAML")
	return cmd
}

func runTags(ctx context.Context, cmd *cobra.Command, opts tagsOptions) error {
	service := newAppService()
	result, err := service.Tags(ctx, app.TagsRequest{
		RepoIndexPath: resolveString(cmd, opts.RepoIndex, "repo_index", "repo-index"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "major: %s\n", strings.Join(result.Major, ", "))
	_, _ = fmt.Fprintf(out, "updates: %s\n", strings.Join(result.Updates, ", "))
	_, _ = fmt.Fprintf(out, "hotfixes: %s\n", strings.Join(result.Hotfixes, ", "))
	return nil
}
