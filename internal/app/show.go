package app

import (
	"context"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"fleet-packages/internal/core"
	"fleet-packages/internal/policies"
	"fleet-packages/internal/shared"
	"fleet-packages/internal/types"
)

// Show lists every indexed version of the requested packages, oldest
// first in dpkg order, with the repositories carrying each version.
func (s Service) Show(ctx context.Context, req ShowRequest) (ShowResult, error) {
	repoIndexPath := strings.TrimSpace(req.RepoIndexPath)
	if repoIndexPath == "" {
		return ShowResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo index file is required")
	}
	names := shared.SplitList(req.Packages)
	if len(names) == 0 {
		return ShowResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one package is required")
	}
	index := s.OpenRepoIndex(repoIndexPath)
	if _, err := index.PackageNames(); err != nil {
		return ShowResult{}, err
	}
	resolver := core.NewRepoVersionResolver(index, policies.NewMaintainerPolicy(req.CriticalMaintainers))

	result := ShowResult{}
	for _, name := range names {
		entries, err := index.Entries(name)
		if err != nil {
			return ShowResult{}, err
		}
		if len(entries) == 0 {
			log.Ctx(ctx).Warn().Str("package", name).Msg("package not present in repo index")
		}
		result.Packages = append(result.Packages, ShowPackage{
			Name:      name,
			Ownership: resolver.Ownership(ctx, name, req.Tag),
			Versions:  showVersions(entries),
		})
	}
	return result, nil
}

func showVersions(entries []types.RepoTuple) []ShowVersion {
	byVersion := map[string]*ShowVersion{}
	for _, tuple := range entries {
		version, ok := byVersion[tuple.Version]
		if !ok {
			version = &ShowVersion{
				Version:    tuple.Version,
				Section:    tuple.Section,
				App:        tuple.App,
				Maintainer: tuple.Maintainer,
			}
			byVersion[tuple.Version] = version
		}
		key := tuple.Header.Key()
		if !containsString(version.Headers, key) {
			version.Headers = append(version.Headers, key)
		}
	}
	order := core.SortDpkg(shared.SortedKeys(byVersion))
	out := make([]ShowVersion, 0, len(order))
	for _, raw := range order {
		version := byVersion[raw]
		sort.Strings(version.Headers)
		out = append(out, *version)
	}
	return out
}

func containsString(values []string, value string) bool {
	for _, item := range values {
		if item == value {
			return true
		}
	}
	return false
}
