package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/shared"
)

func (s Service) RepoIndex(ctx context.Context, req RepoIndexRequest) (RepoIndexResult, error) {
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return RepoIndexResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	buildRequest := ports.RepoIndexBuildRequest{
		Sources:          shared.SplitList(req.Sources),
		User:             strings.TrimSpace(req.User),
		APIKey:           strings.TrimSpace(req.APIKey),
		Workers:          req.Workers,
		HTTPTimeoutSec:   req.HTTPTimeoutSec,
		HTTPRetries:      req.HTTPRetries,
		HTTPRetryDelayMs: req.HTTPRetryDelayMs,
	}
	index, err := s.RepoIndexBuild.Build(ctx, buildRequest)
	if err != nil {
		return RepoIndexResult{}, err
	}
	if err := s.RepoIndexWriter.Write(output, index); err != nil {
		return RepoIndexResult{}, err
	}
	return RepoIndexResult{
		OutputPath:   output,
		HeaderCount:  len(index.Headers),
		PackageCount: len(index.Packages),
	}, nil
}
