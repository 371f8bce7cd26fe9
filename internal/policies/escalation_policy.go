package policies

import (
	"strings"

	"fleet-packages/internal/types"
)

// Results is the status -> action -> node layout of per-node verdicts.
type Results[T any] map[types.VersionStatus]map[types.Action]map[string]T

// Escalate returns a copy of results with the cross-node consistency rule
// applied: disagreement across nodes turns warnings into errors, a
// fleet-wide identical error is only a warning. The input is left
// untouched, so escalating the same folded results again yields the same
// view.
func Escalate[T any](results Results[T]) Results[T] {
	out := make(Results[T], len(results))
	for status, actions := range results {
		copied := make(map[types.Action]map[string]T, len(actions))
		for action, nodes := range actions {
			copied[action] = make(map[string]T, len(nodes))
			for node, value := range nodes {
				copied[action][node] = value
			}
		}
		out[status] = copied
	}
	switch {
	case len(out) > 1:
		moveStatus(out, types.VersionWarn, types.VersionErr)
	case len(out) == 1:
		moveStatus(out, types.VersionErr, types.VersionWarn)
	}
	return out
}

func moveStatus[T any](results Results[T], from types.VersionStatus, to types.VersionStatus) {
	src, ok := results[from]
	if !ok {
		return
	}
	dst, ok := results[to]
	if !ok {
		dst = map[types.Action]map[string]T{}
		results[to] = dst
	}
	for action, nodes := range src {
		if dst[action] == nil {
			dst[action] = map[string]T{}
		}
		for node, value := range nodes {
			dst[action][node] = value
		}
	}
	delete(results, from)
}

// Highest returns the most severe status and the most severe action
// recorded under it. Empty results yield NA/NA.
func Highest[T any](results Results[T]) (types.VersionStatus, types.Action) {
	status := types.VersionNA
	found := false
	for candidate := range results {
		if !found || candidate > status {
			status = candidate
			found = true
		}
	}
	action := types.ActionNA
	for candidate := range results[status] {
		if candidate > action {
			action = candidate
		}
	}
	return status, action
}

// ShouldReport is false for packages whose worst verdict is OK (or NA)
// with nothing to do.
func ShouldReport[T any](results Results[T]) bool {
	status, action := Highest(results)
	return status > types.VersionOK || action != types.ActionNA
}

const SystemSection = "System"

// BucketFor places a package in a report bucket. A package the index
// does not know for the fleet tag is unlisted whatever its description.
func BucketFor(ownership types.Ownership, desc types.PackageDescription) types.Bucket {
	switch {
	case ownership == types.OwnershipUnknown:
		return types.BucketUnlisted
	case ownership == types.OwnershipCritical:
		return types.BucketCritical
	case strings.EqualFold(strings.TrimSpace(desc.Section), SystemSection):
		return types.BucketSystem
	default:
		return types.BucketOther
	}
}
