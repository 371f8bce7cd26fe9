package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"fleet-packages/internal/core"
	"fleet-packages/internal/types"
)

// Tags lists the release tags present in the repo index, split into
// major tags, update tags and hotfix tags.
func (s Service) Tags(_ context.Context, req TagsRequest) (TagsResult, error) {
	repoIndexPath := strings.TrimSpace(req.RepoIndexPath)
	if repoIndexPath == "" {
		return TagsResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo index file is required")
	}
	tags, err := s.OpenRepoIndex(repoIndexPath).Tags()
	if err != nil {
		return TagsResult{}, err
	}
	result := TagsResult{}
	for _, tag := range tags {
		switch {
		case strings.HasSuffix(tag, types.TagSuffixHotfix):
			result.Hotfixes = append(result.Hotfixes, tag)
		case strings.HasSuffix(tag, types.TagSuffixUpdate):
			result.Updates = append(result.Updates, tag)
		default:
			result.Major = append(result.Major, tag)
		}
	}
	core.SortDpkg(result.Major)
	core.SortDpkg(result.Updates)
	core.SortDpkg(result.Hotfixes)
	return result, nil
}
