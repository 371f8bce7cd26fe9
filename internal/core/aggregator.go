package core

import (
	"sort"
	"sync"

	"fleet-packages/internal/policies"
	"fleet-packages/internal/types"
)

// NodeResult is one node's verdict for one package.
type NodeResult struct {
	Installed  Version
	Candidate  Version
	Comparison ComparisonResult
	Raw        string
}

// PackageMeta is what is known about a package before any node is
// folded: its description and the resolved release baseline.
type PackageMeta struct {
	Description types.PackageDescription
	Repos       []types.RepoRef
	Maintainer  string
	Ownership   types.Ownership
	Release     Version
}

// PackageRecord accumulates the per-node verdicts of one package.
type PackageRecord struct {
	Name        string
	Description types.PackageDescription
	Repos       []types.RepoRef
	Maintainer  string
	Ownership   types.Ownership
	Release     Version
	// Results holds the folded verdicts until Escalate replaces it with
	// the escalated view of them.
	Results policies.Results[NodeResult]
	Bucket  types.Bucket

	folded policies.Results[NodeResult]
}

// Nodes returns the number of nodes folded into the record.
func (p *PackageRecord) Nodes() int {
	count := 0
	for _, actions := range p.Results {
		for _, nodes := range actions {
			count += len(nodes)
		}
	}
	return count
}

// Report is the finalized, bucketed package set with per-bucket counters.
type Report struct {
	Buckets    map[types.Bucket][]*PackageRecord
	Errors     map[types.Bucket]int
	Warnings   map[types.Bucket]int
	Downgrades map[types.Bucket]int
	Total      int
	Omitted    int
}

// Aggregator owns the package records of one audit run. Describe and
// Fold may be called concurrently; Finalize must run after every fold.
type Aggregator struct {
	mu      sync.Mutex
	records map[string]*PackageRecord
}

func NewAggregator() *Aggregator {
	return &Aggregator{records: map[string]*PackageRecord{}}
}

func newPackageRecord(name string) *PackageRecord {
	folded := policies.Results[NodeResult]{}
	return &PackageRecord{
		Name:        name,
		Description: types.EmptyDescription(),
		Release:     AbsentVersion(),
		Results:     folded,
		folded:      folded,
	}
}

// Describe creates the record on first sighting. Later calls leave the
// record untouched and return false.
func (a *Aggregator) Describe(name string, meta PackageMeta) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.records[name]; ok {
		return false
	}
	record := newPackageRecord(name)
	record.Description = meta.Description
	record.Repos = meta.Repos
	record.Maintainer = meta.Maintainer
	record.Ownership = meta.Ownership
	record.Release = meta.Release
	a.records[name] = record
	return true
}

// Known reports whether the package already has a record.
func (a *Aggregator) Known(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.records[name]
	return ok
}

// Fold classifies one node's installed/candidate pair against the stored
// release and files the result under status, action and node. A later
// fold for the same node and package replaces the earlier one.
func (a *Aggregator) Fold(nodeID string, name string, installed Version, candidate Version, raw string) ComparisonResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.records[name]
	if !ok {
		record = newPackageRecord(name)
		a.records[name] = record
	}
	result := Classify(installed, candidate, record.Release)
	removeNode(record.folded, nodeID)
	actions := record.folded[result.Status]
	if actions == nil {
		actions = map[types.Action]map[string]NodeResult{}
		record.folded[result.Status] = actions
	}
	if actions[result.Action] == nil {
		actions[result.Action] = map[string]NodeResult{}
	}
	actions[result.Action][nodeID] = NodeResult{
		Installed:  installed,
		Candidate:  candidate,
		Comparison: result,
		Raw:        raw,
	}
	record.Results = record.folded
	return result
}

func removeNode(results policies.Results[NodeResult], nodeID string) {
	for status, actions := range results {
		for action, nodes := range actions {
			delete(nodes, nodeID)
			if len(nodes) == 0 {
				delete(actions, action)
			}
		}
		if len(actions) == 0 {
			delete(results, status)
		}
	}
}

// Escalate replaces the record's results with the escalated view of its
// folded verdicts. Calling it again recomputes the same view; a later
// Fold restores the folded verdicts.
func (a *Aggregator) Escalate(record *PackageRecord) {
	if record == nil {
		return
	}
	record.Results = policies.Escalate(record.folded)
}

// Bucketize assigns and returns the record's bucket.
func (a *Aggregator) Bucketize(record *PackageRecord) types.Bucket {
	record.Bucket = policies.BucketFor(record.Ownership, record.Description)
	return record.Bucket
}

// Record returns the record for a package, if any.
func (a *Aggregator) Record(name string) (*PackageRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.records[name]
	return record, ok
}

// Finalize filters, escalates and buckets every record in name order.
// Without full, packages whose worst verdict is OK with no action are
// omitted. Counters count one per package per post-escalation status.
func (a *Aggregator) Finalize(full bool) Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	report := Report{
		Buckets:    map[types.Bucket][]*PackageRecord{},
		Errors:     map[types.Bucket]int{},
		Warnings:   map[types.Bucket]int{},
		Downgrades: map[types.Bucket]int{},
	}
	for _, bucket := range types.AllBuckets {
		report.Errors[bucket] = 0
		report.Warnings[bucket] = 0
		report.Downgrades[bucket] = 0
	}
	names := make([]string, 0, len(a.records))
	for name := range a.records {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		record := a.records[name]
		report.Total++
		if !full && !policies.ShouldReport(record.Results) {
			report.Omitted++
			continue
		}
		a.Escalate(record)
		bucket := a.Bucketize(record)
		report.Buckets[bucket] = append(report.Buckets[bucket], record)
		if _, ok := record.Results[types.VersionErr]; ok {
			report.Errors[bucket]++
		}
		if _, ok := record.Results[types.VersionWarn]; ok {
			report.Warnings[bucket]++
		}
		if _, ok := record.Results[types.VersionDown]; ok {
			report.Downgrades[bucket]++
		}
	}
	return report
}
