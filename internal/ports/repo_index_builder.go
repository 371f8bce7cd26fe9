package ports

import (
	"context"

	"fleet-packages/internal/types"
)

type RepoIndexBuildRequest struct {
	Sources          []string
	User             string
	APIKey           string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

type RepoIndexBuilderPort interface {
	Build(ctx context.Context, request RepoIndexBuildRequest) (types.RepoIndexFile, error)
}

type RepoIndexWriterPort interface {
	Write(path string, index types.RepoIndexFile) error
}
