package app

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"fleet-packages/internal/core"
	"fleet-packages/internal/policies"
	"fleet-packages/internal/shared"
	"fleet-packages/internal/types"
)

// DefaultExcludeKeywords keeps unstable repositories out of the release
// baseline.
var DefaultExcludeKeywords = []string{"nightly", "extra"}

// nodePackage is one node's inventory entry for a package.
type nodePackage struct {
	node  string
	info  *types.NodeInfo
	state types.PackageState
}

type auditRun struct {
	inventory    types.FleetInventory
	resolver     core.RepoVersionResolver
	aggregator   *core.Aggregator
	descriptions map[string]types.PackageDescription
	forceTag     string
	exclude      []string
}

func (s Service) Audit(ctx context.Context, req AuditRequest) (AuditResult, error) {
	inventoryPath := strings.TrimSpace(req.InventoryPath)
	if inventoryPath == "" {
		return AuditResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("inventory file is required")
	}
	repoIndexPath := strings.TrimSpace(req.RepoIndexPath)
	if repoIndexPath == "" {
		return AuditResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo index file is required")
	}

	inventory, err := s.Inventory.LoadInventory(ctx, inventoryPath)
	if err != nil {
		return AuditResult{}, err
	}
	index := s.OpenRepoIndex(repoIndexPath)
	tags, err := index.Tags()
	if err != nil {
		return AuditResult{}, err
	}
	descriptions := map[string]types.PackageDescription{}
	if path := strings.TrimSpace(req.DescriptionsPath); path != "" {
		descriptions, err = s.Descriptions.LoadDescriptions(ctx, path)
		if err != nil {
			return AuditResult{}, err
		}
	}
	forceTag := strings.TrimSpace(req.ForceTag)
	warnUnknownTags(ctx, tags, inventory.Tag, forceTag)

	run := auditRun{
		inventory:    inventory,
		resolver:     core.NewRepoVersionResolver(index, policies.NewMaintainerPolicy(req.CriticalMaintainers)),
		aggregator:   core.NewAggregator(),
		descriptions: descriptions,
		forceTag:     forceTag,
		exclude:      shared.SplitList(req.ExcludeKeywords),
	}
	grouped := groupByPackage(ctx, inventory)
	log.Ctx(ctx).Info().
		Int("nodes", len(inventory.Nodes)).
		Int("packages", len(grouped)).
		Str("tag", inventory.Tag).
		Str("force_tag", forceTag).
		Strs("exclude", run.exclude).
		Msg("cross-comparing installed, candidate and release versions")

	workers := req.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, name := range shared.SortedKeys(grouped) {
		entries := grouped[name]
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			run.auditPackage(gCtx, name, entries)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AuditResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("audit canceled").
			WithCause(err)
	}

	final := run.aggregator.Finalize(req.Full)
	report := buildAuditReport(final, inventory, req.IncludeRaw)
	if s.Clock != nil {
		report.GeneratedAt = s.Clock().UTC().Format(time.RFC3339)
	}
	log.Ctx(ctx).Info().
		Int("total", report.Total).
		Int("omitted", report.Omitted).
		Msg("audit finished")

	result := AuditResult{Report: report}
	if path := strings.TrimSpace(req.OutputPath); path != "" {
		if err := s.Reports.WriteReport(path, report); err != nil {
			return AuditResult{}, err
		}
		result.OutputPath = path
	}
	if path := strings.TrimSpace(req.CSVPath); path != "" {
		if err := s.Reports.WriteCSV(path, report); err != nil {
			return AuditResult{}, err
		}
		result.CSVPath = path
	}
	if path := strings.TrimSpace(req.MetricsPath); path != "" {
		if err := s.Metrics.WriteMetrics(path, report); err != nil {
			return AuditResult{}, err
		}
		result.MetricsPath = path
	}
	return result, nil
}

func warnUnknownTags(ctx context.Context, known []string, tags ...string) {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		found := false
		for _, candidate := range known {
			if policies.BaseTag(candidate) == tag || candidate == tag {
				found = true
				break
			}
		}
		if !found {
			log.Ctx(ctx).Warn().Str("tag", tag).Msg("tag not present in repo index")
		}
	}
}

// groupByPackage turns node -> package into package -> nodes, nodes in
// name order so the first resolved release is deterministic.
func groupByPackage(ctx context.Context, inventory types.FleetInventory) map[string][]nodePackage {
	grouped := map[string][]nodePackage{}
	for _, node := range shared.SortedKeys(inventory.Nodes) {
		info := inventory.Nodes[node]
		if strings.TrimSpace(node) == "" {
			log.Ctx(ctx).Warn().Msg("skipping node without an id")
			continue
		}
		if info == nil || len(info.Packages) == 0 {
			log.Ctx(ctx).Warn().Str("node", node).Msg("node has no package inventory")
			continue
		}
		for name, state := range info.Packages {
			if strings.TrimSpace(name) == "" {
				log.Ctx(ctx).Warn().Str("node", node).Msg("skipping package entry without a name")
				continue
			}
			grouped[name] = append(grouped[name], nodePackage{node: node, info: info, state: state})
		}
	}
	return grouped
}

func (r auditRun) auditPackage(ctx context.Context, name string, entries []nodePackage) {
	if len(entries) == 0 {
		return
	}
	assert.NotEmpty(ctx, name, "package name must be set")
	if !r.aggregator.Known(name) {
		r.aggregator.Describe(name, r.describe(ctx, name, entries[0].info))
	}
	for _, entry := range entries {
		assert.NotEmpty(ctx, entry.node, "node id must be set")
		r.aggregator.Fold(
			entry.node,
			name,
			core.ParseVersion(entry.state.Installed),
			core.ParseVersion(entry.state.Candidate),
			entry.state.Raw,
		)
	}
}

// describe resolves the release baseline and metadata using the first
// node's OS facts.
func (r auditRun) describe(ctx context.Context, name string, info *types.NodeInfo) core.PackageMeta {
	release := r.resolver.ResolveRelease(ctx, name, core.ReleaseQuery{
		ForceTag:   r.forceTag,
		DefaultTag: r.inventory.Tag,
		OSRelease:  r.inventory.OSRelease,
		Codename:   info.Codename,
		Arch:       info.Arch,
		Exclude:    r.exclude,
	})
	desc, ok := r.descriptions[name]
	if !ok {
		desc = types.EmptyDescription()
	}
	meta := core.PackageMeta{
		Description: desc,
		Repos:       release.Repos,
		Ownership:   r.resolver.Ownership(ctx, name, r.inventory.Tag),
		Release:     release.Release,
	}
	if release.Found {
		if meta.Description.Section == "" {
			meta.Description.Section = strings.Join(release.Sections, "/")
		}
		if meta.Description.App == "" {
			meta.Description.App = strings.Join(release.Apps, "/")
		}
		if len(release.Repos) > 0 {
			meta.Maintainer = release.Repos[0].Maintainer
		}
	}
	return meta
}

func buildAuditReport(final core.Report, inventory types.FleetInventory, includeRaw bool) types.AuditReport {
	report := types.AuditReport{
		Tag:        inventory.Tag,
		OSRelease:  inventory.OSRelease,
		Nodes:      shared.SortedKeys(inventory.Nodes),
		Total:      final.Total,
		Omitted:    final.Omitted,
		Errors:     final.Errors,
		Warnings:   final.Warnings,
		Downgrades: final.Downgrades,
		Packages:   map[types.Bucket][]types.PackageReport{},
	}
	for _, bucket := range types.AllBuckets {
		records := final.Buckets[bucket]
		sort.Slice(records, func(i, j int) bool {
			return records[i].Name < records[j].Name
		})
		for _, record := range records {
			report.Packages[bucket] = append(report.Packages[bucket], packageReport(record, includeRaw))
		}
	}
	return report
}

func packageReport(record *core.PackageRecord, includeRaw bool) types.PackageReport {
	out := types.PackageReport{
		Name:        record.Name,
		Description: record.Description,
		Maintainer:  record.Maintainer,
		Ownership:   record.Ownership,
		Release:     record.Release.String(),
		Repos:       record.Repos,
		Results:     types.ResultTree{},
	}
	for status, actions := range record.Results {
		statusKey := status.String()
		if out.Results[statusKey] == nil {
			out.Results[statusKey] = map[string]map[string]types.NodeReport{}
		}
		for action, nodes := range actions {
			actionKey := action.String()
			if out.Results[statusKey][actionKey] == nil {
				out.Results[statusKey][actionKey] = map[string]types.NodeReport{}
			}
			for node, result := range nodes {
				source := result.Comparison.Source
				entry := types.NodeReport{
					Installed: result.Installed.String(),
					Candidate: result.Candidate.String(),
					Target:    result.Comparison.Target.String(),
					Epoch:     source.EpochStatus.String(),
					Upstream:  source.UpstreamStatus.String(),
					Debian:    source.DebianStatus.String(),
				}
				if includeRaw {
					entry.Raw = result.Raw
				}
				out.Results[statusKey][actionKey][node] = entry
			}
		}
	}
	return out
}
