package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fleet-packages/internal/app"
)

type repoIndexOptions struct {
	Output           string
	Sources          []string
	User             string
	APIKey           string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

func newRepoIndexCommand() *cobra.Command {
	opts := repoIndexOptions{}
	cmd := &cobra.Command{
		Use:   "repo-index",
		Short: "Generate a repository index from APT Packages files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepoIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Output, "output", "repo-index.yaml", "Output path for repo index YAML")
	cmd.Flags().StringSliceVar(&opts.Sources, "source", nil, "Repo source: endpoint|tag|subset|release|ubuntu-release[|type|arch]")
	cmd.Flags().StringVar(&opts.User, "user", "", "Basic auth user")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "Basic auth password/API key")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Concurrent fetch workers (0 = default)")
	cmd.Flags().IntVar(&opts.HTTPTimeoutSec, "http-timeout", 60, "HTTP timeout in seconds (0 = default)")
	cmd.Flags().IntVar(&opts.HTTPRetries, "http-retries", 3, "HTTP retries (0 = default)")
	cmd.Flags().IntVar(&opts.HTTPRetryDelayMs, "http-retry-delay-ms", 200, "HTTP retry base delay in ms (0 = default)")

	_ = viper.BindPFlag("repo_index_output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("repo_sources", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("repo_user", cmd.Flags().Lookup("user"))
	_ = viper.BindPFlag("repo_api_key", cmd.Flags().Lookup("api-key"))
	_ = viper.BindPFlag("repo_index_workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("http_timeout_sec", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.Flags().Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", cmd.Flags().Lookup("http-retry-delay-ms"))

	return cmd
}

func runRepoIndex(ctx context.Context, cmd *cobra.Command, opts repoIndexOptions) error {
	service := newAppService()
	result, err := service.RepoIndex(ctx, app.RepoIndexRequest{
		Output:           resolveString(cmd, opts.Output, "repo_index_output", "output"),
		Sources:          resolveStrings(cmd, opts.Sources, "repo_sources", "source"),
		User:             resolveString(cmd, opts.User, "repo_user", "user"),
		APIKey:           resolveString(cmd, opts.APIKey, "repo_api_key", "api-key"),
		Workers:          resolveInt(cmd, opts.Workers, "repo_index_workers", "workers"),
		HTTPTimeoutSec:   resolveInt(cmd, opts.HTTPTimeoutSec, "http_timeout_sec", "http-timeout"),
		HTTPRetries:      resolveInt(cmd, opts.HTTPRetries, "http_retries", "http-retries"),
		HTTPRetryDelayMs: resolveInt(cmd, opts.HTTPRetryDelayMs, "http_retry_delay_ms", "http-retry-delay-ms"),
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote repo index: %s (%d repos, %d packages)\n",
		result.OutputPath, result.HeaderCount, result.PackageCount)
	return nil
}
