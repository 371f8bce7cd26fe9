package adapters

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-packages/internal/types"
)

const sampleDescriptions = `package_name,component,application_or_service,repo,openstack_release,2019.2.0
nova-common,OpenStack,nova,mcp,queens,2:17.0.9-6
nova-common,OpenStack,nova-other,mcp,pike,2:16.1.0-1
nova-common,Duplicate,nova,mcp,queens,2:17.0.9-6
libc6,System,glibc,,,
short,row
`

func TestParseDescriptions(t *testing.T) {
	got, err := parseDescriptions(t.Context(), strings.NewReader(sampleDescriptions))
	require.NoError(t, err)

	want := map[string]types.PackageDescription{
		"nova-common": {Section: "OpenStack", App: "nova", Repo: "mcp"},
		"libc6":       {Section: "System", App: "glibc", Repo: "other"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected descriptions (-want +got):\n%s", diff)
	}
	assert.True(t, got["libc6"].Listed())
}

func TestParseDescriptionsInvalidCSV(t *testing.T) {
	_, err := parseDescriptions(t.Context(), strings.NewReader("a,\"unterminated\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid descriptions file")
}

func TestDescriptionCSVAdapterMissingFile(t *testing.T) {
	_, err := NewDescriptionCSVAdapter().LoadDescriptions(t.Context(), "/nonexistent/desc.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "descriptions file not found")
}

func TestDescriptionCSVAdapterLoadsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "desc.csv", sampleDescriptions)
	got, err := NewDescriptionCSVAdapter().LoadDescriptions(t.Context(), path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
