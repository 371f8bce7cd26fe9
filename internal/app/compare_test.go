package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-packages/internal/types"
)

func TestCompareApp(t *testing.T) {
	tests := []struct {
		name      string
		req       CompareRequest
		status    types.VersionStatus
		action    types.Action
		target    string
		disagrees bool
		dpkg      bool
	}{
		{
			name:   "upgrade pending to release",
			req:    CompareRequest{Installed: "2:17.0.9-6", Candidate: "2:17.0.10-1", Release: "2:17.0.10-1"},
			status: types.VersionErr,
			action: types.ActionNeedUp,
			target: "2:17.0.10-1",
			dpkg:   true,
		},
		{
			name:   "no release",
			req:    CompareRequest{Installed: "1.0-1", Candidate: "1.1-1"},
			status: types.VersionOK,
			action: types.ActionUpgrade,
			target: "1.1-1",
			dpkg:   true,
		},
		{
			name:      "debian revision ignored by the engine",
			req:       CompareRequest{Installed: "1.0-2", Candidate: "1.0-1"},
			status:    types.VersionOK,
			action:    types.ActionNA,
			target:    "1.0-1",
			disagrees: true,
			dpkg:      true,
		},
		{
			name:   "not installed",
			req:    CompareRequest{Installed: "(none)", Candidate: "1.0-1"},
			status: types.VersionOK,
			action: types.ActionUpgrade,
			target: "1.0-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewService().Compare(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, result.Result.Status)
			assert.Equal(t, tt.action, result.Result.Action)
			assert.Equal(t, tt.target, result.Result.Target.String())
			assert.Equal(t, tt.disagrees, result.Disagrees)
			assert.Equal(t, tt.dpkg, result.Dpkg != nil)
		})
	}
}

func TestCompareAppRequiresVersions(t *testing.T) {
	_, err := NewService().Compare(CompareRequest{Installed: "1.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installed and candidate versions are required")
}
