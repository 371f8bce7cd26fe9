package core

import "fleet-packages/internal/types"

// ComparisonResult is the verdict for one installed/candidate/release
// triple. Source is the installed version carrying per-field flags.
type ComparisonResult struct {
	Source Version
	Target Version
	Status types.VersionStatus
	Action types.Action
}

// Classify compares installed against the repository candidate and,
// when present, the release baseline. The first matching row of the
// decision table wins.
func Classify(installed Version, candidate Version, release Version) ComparisonResult {
	result := ComparisonResult{
		Target: candidate,
		Status: types.VersionNA,
		Action: types.ActionNA,
	}
	if release.IsAbsent() {
		classifyWithoutRelease(&result, installed, candidate)
	} else {
		classifyWithRelease(&result, installed, candidate, release)
	}
	source := installed
	source.UpdatePartStatus(result.Target, result.Status)
	result.Source = source
	return result
}

func classifyWithoutRelease(result *ComparisonResult, i Version, c Version) {
	switch {
	case i.Less(c):
		result.Status, result.Action = types.VersionOK, types.ActionUpgrade
	case i.Greater(c):
		result.Status, result.Action = types.VersionUp, types.ActionNeedDown
	default:
		result.Status, result.Action = types.VersionOK, types.ActionNA
	}
}

func classifyWithRelease(result *ComparisonResult, i Version, c Version, r Version) {
	switch {
	case i.Less(c):
		switch {
		case i.Equal(r):
			result.Status, result.Action = types.VersionOK, types.ActionUpgrade
		case i.Greater(r):
			result.Status, result.Action = types.VersionUp, types.ActionUpgrade
		case r.Less(c):
			result.Status, result.Action = types.VersionErr, types.ActionNeedUp
			result.Target = r
		case c.Equal(r):
			result.Status, result.Action = types.VersionErr, types.ActionNeedUp
		default:
			// installed and candidate both behind the release
			result.Status, result.Action = types.VersionErr, types.ActionRepo
		}
	case i.Greater(c):
		switch {
		case c.Equal(r):
			result.Status, result.Action = types.VersionErr, types.ActionNeedDown
		case c.Greater(r):
			result.Status, result.Action = types.VersionUp, types.ActionNeedDown
		case r.Less(i):
			result.Status, result.Action = types.VersionUp, types.ActionRepo
		case r.Equal(i):
			result.Status, result.Action = types.VersionOK, types.ActionRepo
		default:
			result.Status, result.Action = types.VersionDown, types.ActionRepo
			result.Target = r
		}
	default:
		switch {
		case i.Less(r):
			result.Status, result.Action = types.VersionErr, types.ActionRepo
			result.Target = r
		case i.Greater(r):
			result.Status, result.Action = types.VersionUp, types.ActionNA
		default:
			result.Status, result.Action = types.VersionOK, types.ActionNA
		}
	}
}
