package app

import (
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"fleet-packages/internal/core"
)

// Compare classifies a single (installed, candidate, release) triple and
// cross-checks the installed/candidate ordering against dpkg.
func (s Service) Compare(req CompareRequest) (CompareResult, error) {
	if strings.TrimSpace(req.Installed) == "" || strings.TrimSpace(req.Candidate) == "" {
		return CompareResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("installed and candidate versions are required")
	}
	result := CompareResult{
		Installed: core.ParseVersion(req.Installed),
		Candidate: core.ParseVersion(req.Candidate),
		Release:   core.ParseVersion(req.Release),
	}
	result.Result = core.Classify(result.Installed, result.Candidate, result.Release)
	if result.Installed.IsAbsent() || result.Candidate.IsAbsent() {
		return result, nil
	}
	dpkg, err := core.DpkgCompare(result.Installed.Raw, result.Candidate.Raw)
	if err != nil {
		return result, nil
	}
	result.Dpkg = &dpkg
	result.Disagrees = sign(core.Compare(result.Installed, result.Candidate)) != sign(dpkg)
	return result, nil
}

func sign(value int) int {
	switch {
	case value < 0:
		return -1
	case value > 0:
		return 1
	default:
		return 0
	}
}
