package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-packages/internal/types"
)

func counters(critical, system, other, unlisted int) map[types.Bucket]int {
	return map[types.Bucket]int{
		types.BucketCritical: critical,
		types.BucketSystem:   system,
		types.BucketOther:    other,
		types.BucketUnlisted: unlisted,
	}
}

func packageNames(reports []types.PackageReport) []string {
	names := make([]string, 0, len(reports))
	for _, report := range reports {
		names = append(names, report.Name)
	}
	return names
}

func TestAuditApp(t *testing.T) {
	paths := writeFixtures(t)
	service := fixedService()

	result, err := service.Audit(context.Background(), AuditRequest{
		InventoryPath:    paths.Inventory,
		RepoIndexPath:    paths.RepoIndex,
		DescriptionsPath: paths.Descriptions,
		ExcludeKeywords:  DefaultExcludeKeywords,
		Workers:          2,
	})
	require.NoError(t, err)
	report := result.Report

	assert.Equal(t, "2026-10-17T08:00:00Z", report.GeneratedAt)
	assert.Equal(t, "2019.2.0", report.Tag)
	assert.Equal(t, "queens", report.OSRelease)
	assert.Equal(t, []string{"cmp01", "cmp02", "ctl01"}, report.Nodes)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 1, report.Omitted)
	if diff := cmp.Diff(counters(1, 1, 0, 0), report.Errors); diff != "" {
		t.Fatalf("unexpected error counters (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(counters(1, 0, 0, 0), report.Warnings); diff != "" {
		t.Fatalf("unexpected warning counters (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(counters(0, 0, 0, 0), report.Downgrades); diff != "" {
		t.Fatalf("unexpected downgrade counters (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"libvirt0", "nova-common"}, packageNames(report.Packages[types.BucketCritical]))
	assert.Equal(t, []string{"bash"}, packageNames(report.Packages[types.BucketSystem]))
	assert.Empty(t, report.Packages[types.BucketOther])
	assert.Equal(t, []string{"htop"}, packageNames(report.Packages[types.BucketUnlisted]))

	nova := report.Packages[types.BucketCritical][1]
	wantNova := types.PackageReport{
		Name:        "nova-common",
		Description: types.PackageDescription{Section: "OpenStack", App: "nova", Repo: "mcp"},
		Maintainer:  mosMaintainer,
		Ownership:   types.OwnershipCritical,
		Release:     "2:17.0.10-1",
		Repos: []types.RepoRef{{
			Section:    "openstack",
			App:        "nova",
			HeaderID:   "openstack-queens_ubuntu_xenial_main_amd64",
			Maintainer: mosMaintainer,
			Header: types.RepoHeader{
				Tag:           "2019.2.0",
				Subset:        "openstack-queens",
				Release:       "ubuntu",
				UbuntuRelease: "xenial",
				Type:          "main",
				Arch:          "amd64",
			},
		}},
		Results: types.ResultTree{
			"error": {"needs upgrade": {
				"cmp01": {Installed: "2:17.0.9-6", Candidate: "2:17.0.10-1", Target: "2:17.0.10-1", Epoch: "ok", Upstream: "error", Debian: "error"},
			}},
			"ok": {"none": {
				"cmp02": {Installed: "2:17.0.10-1", Candidate: "2:17.0.10-1", Target: "2:17.0.10-1", Epoch: "ok", Upstream: "ok", Debian: "ok"},
			}},
		},
	}
	if diff := cmp.Diff(wantNova, nova); diff != "" {
		t.Fatalf("unexpected nova-common report (-want +got):\n%s", diff)
	}

	// the only node with libvirt0 cannot confirm the error
	libvirt := report.Packages[types.BucketCritical][0]
	require.Contains(t, libvirt.Results, "warning")
	assert.NotContains(t, libvirt.Results, "error")
	assert.Contains(t, libvirt.Results["warning"]["needs upgrade"], "cmp01")

	bash := report.Packages[types.BucketSystem][0]
	assert.Equal(t, "4.4-1", bash.Release)
	assert.Equal(t, types.OwnershipOther, bash.Ownership)
	assert.Equal(t, ubuntuMaintainer, bash.Maintainer)

	htop := report.Packages[types.BucketUnlisted][0]
	assert.Equal(t, "n/a", htop.Release)
	assert.Equal(t, types.OwnershipUnknown, htop.Ownership)
	assert.Equal(t, "2.0.2-1", htop.Results["ok"]["upgrade possible"]["cmp01"].Target)
}

func TestAuditAppFullReportsQuietPackages(t *testing.T) {
	paths := writeFixtures(t)
	result, err := fixedService().Audit(context.Background(), AuditRequest{
		InventoryPath:   paths.Inventory,
		RepoIndexPath:   paths.RepoIndex,
		ExcludeKeywords: DefaultExcludeKeywords,
		Full:            true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Report.Omitted)

	other := result.Report.Packages[types.BucketOther]
	require.Len(t, other, 2)
	assert.Equal(t, []string{"bash", "curl"}, packageNames(other))
	// no CSV row, so the section comes from the index
	assert.Equal(t, "net", other[1].Description.Section)
	assert.Equal(t, types.DefaultDescriptionRepo, other[1].Description.Repo)
}

func TestAuditAppExcludeKeywords(t *testing.T) {
	paths := writeFixtures(t)
	result, err := fixedService().Audit(context.Background(), AuditRequest{
		InventoryPath: paths.Inventory,
		RepoIndexPath: paths.RepoIndex,
		Full:          true,
	})
	require.NoError(t, err)

	var nova types.PackageReport
	for _, pkg := range result.Report.Packages[types.BucketCritical] {
		if pkg.Name == "nova-common" {
			nova = pkg
		}
	}
	// without the nightly exclusion the nightly repo sets the baseline
	assert.Equal(t, "2:17.0.13-1", nova.Release)
}

func TestAuditAppForceTagFallsBackToFleetTag(t *testing.T) {
	paths := writeFixtures(t)
	result, err := fixedService().Audit(context.Background(), AuditRequest{
		InventoryPath:   paths.Inventory,
		RepoIndexPath:   paths.RepoIndex,
		ForceTag:        "2020.1.0",
		ExcludeKeywords: DefaultExcludeKeywords,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Report.Packages[types.BucketCritical])
	assert.Equal(t, "2:17.0.10-1", result.Report.Packages[types.BucketCritical][1].Release)
}

func TestAuditAppIncludeRaw(t *testing.T) {
	paths := writeFixtures(t)
	result, err := fixedService().Audit(context.Background(), AuditRequest{
		InventoryPath:   paths.Inventory,
		RepoIndexPath:   paths.RepoIndex,
		ExcludeKeywords: DefaultExcludeKeywords,
		IncludeRaw:      true,
	})
	require.NoError(t, err)
	nova := result.Report.Packages[types.BucketCritical][1]
	assert.Contains(t, nova.Results["error"]["needs upgrade"]["cmp01"].Raw, "Installed: 2:17.0.9-6")
}

func TestAuditAppWritesOutputs(t *testing.T) {
	paths := writeFixtures(t)
	out := filepath.Join(paths.Dir, "out")
	result, err := fixedService().Audit(context.Background(), AuditRequest{
		InventoryPath:    paths.Inventory,
		RepoIndexPath:    paths.RepoIndex,
		DescriptionsPath: paths.Descriptions,
		ExcludeKeywords:  DefaultExcludeKeywords,
		OutputPath:       filepath.Join(out, "report.yaml"),
		CSVPath:          filepath.Join(out, "report.csv"),
		MetricsPath:      filepath.Join(out, "fleet_packages.prom"),
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "report.yaml"), result.OutputPath)

	yamlData, err := os.ReadFile(result.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(yamlData), "nova-common")
	assert.Contains(t, string(yamlData), "generated_at:")
	assert.Contains(t, string(yamlData), "2026-10-17T08:00:00Z")
	assert.Contains(t, string(yamlData), "upstream: error")

	csvData, err := os.ReadFile(result.CSVPath)
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "critical,nova-common,cmp01,2:17.0.9-6,2:17.0.10-1,2:17.0.10-1,error,needs upgrade,2:17.0.10-1,")
	assert.Contains(t, string(csvData), ",ok,error,error\n")

	metricsData, err := os.ReadFile(result.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metricsData), "fleet_packages_audited_total 5")
	assert.Contains(t, string(metricsData), `fleet_packages_findings{bucket="critical",kind="errors"} 1`)
}

func TestGroupByPackageSkipsUnnamedEntries(t *testing.T) {
	state := types.PackageState{Installed: "1.0", Candidate: "1.0"}
	inventory := types.FleetInventory{Nodes: map[string]*types.NodeInfo{
		"cmp01": {Packages: map[string]types.PackageState{"curl": state, "": state, "  ": state}},
		"":      {Packages: map[string]types.PackageState{"curl": state}},
	}}
	grouped := groupByPackage(context.Background(), inventory)
	require.Len(t, grouped, 1)
	require.Len(t, grouped["curl"], 1)
	assert.Equal(t, "cmp01", grouped["curl"][0].node)
}

func TestAuditAppErrors(t *testing.T) {
	paths := writeFixtures(t)
	service := fixedService()
	ctx := context.Background()

	_, err := service.Audit(ctx, AuditRequest{RepoIndexPath: paths.RepoIndex})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inventory file is required")

	_, err = service.Audit(ctx, AuditRequest{InventoryPath: paths.Inventory})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo index file is required")

	_, err = service.Audit(ctx, AuditRequest{
		InventoryPath: paths.Inventory,
		RepoIndexPath: filepath.Join(paths.Dir, "missing.yaml"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo index file not found")

	_, err = service.Audit(ctx, AuditRequest{
		InventoryPath:    paths.Inventory,
		RepoIndexPath:    paths.RepoIndex,
		DescriptionsPath: filepath.Join(paths.Dir, "missing.csv"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descriptions file not found")
}

func TestAuditAppCanceled(t *testing.T) {
	paths := writeFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fixedService().Audit(ctx, AuditRequest{
		InventoryPath: paths.Inventory,
		RepoIndexPath: paths.RepoIndex,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit canceled")
}
