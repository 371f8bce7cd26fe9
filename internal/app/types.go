package app

import (
	"fleet-packages/internal/core"
	"fleet-packages/internal/types"
)

type AuditRequest struct {
	InventoryPath       string
	RepoIndexPath       string
	DescriptionsPath    string
	ForceTag            string
	ExcludeKeywords     []string
	CriticalMaintainers []string
	Full                bool
	IncludeRaw          bool
	Workers             int
	OutputPath          string
	CSVPath             string
	MetricsPath         string
}

type AuditResult struct {
	Report      types.AuditReport
	OutputPath  string
	CSVPath     string
	MetricsPath string
}

type RepoIndexRequest struct {
	Sources          []string
	User             string
	APIKey           string
	Workers          int
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
	Output           string
}

type RepoIndexResult struct {
	OutputPath   string
	HeaderCount  int
	PackageCount int
}

type ShowRequest struct {
	RepoIndexPath       string
	Packages            []string
	Tag                 string
	CriticalMaintainers []string
}

type ShowResult struct {
	Packages []ShowPackage
}

type ShowPackage struct {
	Name      string
	Ownership types.Ownership
	Versions  []ShowVersion
}

type ShowVersion struct {
	Version    string
	Section    string
	App        string
	Maintainer string
	Headers    []string
}

type TagsRequest struct {
	RepoIndexPath string
}

type TagsResult struct {
	Major    []string
	Updates  []string
	Hotfixes []string
}

type CompareRequest struct {
	Installed string
	Candidate string
	Release   string
}

type CompareResult struct {
	Installed core.Version
	Candidate core.Version
	Release   core.Version
	Result    core.ComparisonResult
	// Dpkg is the full dpkg ordering of installed against candidate. It
	// is only set when both strings are valid dpkg versions.
	Dpkg      *int
	Disagrees bool
}
