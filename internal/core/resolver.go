package core

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"fleet-packages/internal/policies"
	"fleet-packages/internal/ports"
	"fleet-packages/internal/types"
)

// OpenStackKeyword is excluded on the relaxed fallback search so product
// repositories of another release cannot provide the baseline.
const OpenStackKeyword = "openstack"

// RepoVersionResolver finds the release baseline of a package in the
// repository index.
type RepoVersionResolver struct {
	Index       ports.RepoIndexPort
	Maintainers policies.MaintainerPolicy
}

// ReleaseQuery carries the node and fleet facts used by the fallback
// chain in ResolveRelease.
type ReleaseQuery struct {
	ForceTag   string
	DefaultTag string
	OSRelease  string
	Codename   string
	Arch       string
	Exclude    []string
}

// ReleaseResult is the outcome of ResolveRelease. Found is false when no
// step of the fallback chain produced any version; Release is then the
// absent sentinel.
type ReleaseResult struct {
	Release  Version
	Tag      string
	Repos    []types.RepoRef
	Sections []string
	Apps     []string
	Found    bool
}

func NewRepoVersionResolver(index ports.RepoIndexPort, maintainers policies.MaintainerPolicy) RepoVersionResolver {
	return RepoVersionResolver{
		Index:       index,
		Maintainers: maintainers,
	}
}

// Resolve returns version -> repos for the package, keeping only repos
// whose tag matches and whose header carries every include keyword and
// none of the exclude keywords.
func (r RepoVersionResolver) Resolve(ctx context.Context, name string, tag string, include []string, exclude []string) map[string][]types.RepoRef {
	out := map[string][]types.RepoRef{}
	if r.Index == nil {
		return out
	}
	entries, err := r.Index.Entries(name)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("package", name).Msg("repo index lookup failed")
		return out
	}
	filter := policies.NewRepoFilter(tag, include, exclude)
	for _, tuple := range entries {
		if strings.TrimSpace(tuple.Version) == "" || !filter.Match(tuple) {
			continue
		}
		out[tuple.Version] = append(out[tuple.Version], types.RepoRef{
			Section:    tuple.Section,
			App:        tuple.App,
			HeaderID:   tuple.Header.ID(),
			Maintainer: tuple.Maintainer,
			MD5:        tuple.MD5,
			Header:     tuple.Header,
		})
	}
	return out
}

// SelectNewest returns the greatest version by Compare. Versions are
// visited in sorted order and only a strictly greater one replaces the
// current pick, so ties between equal-ordering strings are stable.
func SelectNewest(versions []string) Version {
	_, newest := selectNewestKey(versions)
	return newest
}

// selectNewestKey is SelectNewest that also returns the string the pick
// was parsed from, untrimmed, so it can index the map it came from.
func selectNewestKey(versions []string) (string, Version) {
	sorted := append([]string(nil), versions...)
	sort.Strings(sorted)
	key := ""
	newest := AbsentVersion()
	for _, raw := range sorted {
		if candidate := ParseVersion(raw); candidate.Greater(newest) {
			key, newest = raw, candidate
		}
	}
	return key, newest
}

type releaseStep struct {
	tag     string
	include []string
	exclude []string
}

func (q ReleaseQuery) steps() []releaseStep {
	var tags []string
	for _, tag := range []string{q.ForceTag, q.DefaultTag} {
		tag = strings.TrimSpace(tag)
		if tag == "" || containsString(tags, tag) {
			continue
		}
		tags = append(tags, tag)
	}
	relaxed := append(append([]string(nil), q.Exclude...), OpenStackKeyword)
	var steps []releaseStep
	for _, tag := range tags {
		steps = append(steps,
			releaseStep{tag: tag, include: []string{q.OSRelease, q.Codename, q.Arch}, exclude: q.Exclude},
			releaseStep{tag: tag, include: []string{q.Codename, q.Arch}, exclude: relaxed},
		)
	}
	return steps
}

// ResolveRelease walks the fallback chain: the forced tag with the OS
// release keyword, the forced tag without it (and without openstack
// repos), then the same two searches under the fleet tag. The first step
// that finds any version wins.
func (r RepoVersionResolver) ResolveRelease(ctx context.Context, name string, q ReleaseQuery) ReleaseResult {
	for _, step := range q.steps() {
		versions := r.Resolve(ctx, name, step.tag, step.include, step.exclude)
		if len(versions) == 0 {
			continue
		}
		keys := make([]string, 0, len(versions))
		for version := range versions {
			keys = append(keys, version)
		}
		key, release := selectNewestKey(keys)
		if release.IsAbsent() {
			continue
		}
		result := ReleaseResult{
			Release: release,
			Tag:     step.tag,
			Repos:   versions[key],
			Found:   true,
		}
		for _, ref := range result.Repos {
			result.Sections = append(result.Sections, ref.Section)
			result.Apps = append(result.Apps, ref.App)
		}
		log.Ctx(ctx).Debug().
			Str("package", name).
			Str("tag", step.tag).
			Strs("include", step.include).
			Str("release", release.String()).
			Msg("release baseline resolved")
		return result
	}
	return ReleaseResult{Release: AbsentVersion()}
}

// Ownership reports whether the package is maintained by a critical
// maintainer in any repo whose tag starts with tag. A package with no
// entry under the tag is of unknown ownership.
func (r RepoVersionResolver) Ownership(ctx context.Context, name string, tag string) types.Ownership {
	if r.Index == nil {
		return types.OwnershipUnknown
	}
	entries, err := r.Index.Entries(name)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("package", name).Msg("repo index lookup failed")
		return types.OwnershipUnknown
	}
	tag = strings.TrimSpace(tag)
	var maintainers []string
	for _, tuple := range entries {
		if tag != "" && !strings.HasPrefix(tuple.Header.Tag, tag) {
			continue
		}
		maintainers = append(maintainers, tuple.Maintainer)
	}
	return r.Maintainers.Ownership(maintainers)
}

func containsString(values []string, value string) bool {
	for _, item := range values {
		if item == value {
			return true
		}
	}
	return false
}
