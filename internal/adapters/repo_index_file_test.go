package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-packages/internal/types"
)

const sampleRepoIndex = `
headers:
  2019.2.0_openstack-queens_ubuntu_xenial_main_amd64:
    tag: 2019.2.0
    subset: openstack-queens
    release: ubuntu
    ubuntu-release: xenial
    type: main
    arch: amd64
  2019.2.0.update_openstack-queens_ubuntu_xenial_main_amd64: {}
packages:
  nova-common:
    - version: "2:17.0.9-6"
      md5: aaa
      section: openstack
      app: nova
      maintainer: "MOS Linux <mos-linux@mirantis.com>"
      repos:
        - 2019.2.0_openstack-queens_ubuntu_xenial_main_amd64
        - 2019.2.0.update_openstack-queens_ubuntu_xenial_main_amd64
    - version: "2:17.0.10-1"
      repos: [missing_header_key]
  curl:
    - version: "7.47.0-1"
      repos: [2019.2.0_openstack-queens_ubuntu_xenial_main_amd64]
`

func writeRepoIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repo-index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRepoIndexFileAdapter_Entries(t *testing.T) {
	adapter := NewRepoIndexFileAdapter(writeRepoIndex(t, sampleRepoIndex))

	t.Run("known package", func(t *testing.T) {
		entries, err := adapter.Entries("nova-common")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "2:17.0.9-6", entries[0].Version)
		assert.Equal(t, "nova", entries[0].App)
		assert.Equal(t, "aaa", entries[0].MD5)
		assert.Equal(t, "2019.2.0", entries[0].Header.Tag)
		assert.Equal(t, "2019.2.0.update", entries[1].Header.Tag)
		assert.Equal(t, "openstack-queens_ubuntu_xenial_main_amd64", entries[1].Header.ID())
	})

	t.Run("unknown package", func(t *testing.T) {
		entries, err := adapter.Entries("nonexistent")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRepoIndexFileAdapter_PackageNamesAndTags(t *testing.T) {
	adapter := NewRepoIndexFileAdapter(writeRepoIndex(t, sampleRepoIndex))

	names, err := adapter.PackageNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"curl", "nova-common"}, names)

	tags, err := adapter.Tags()
	require.NoError(t, err)
	assert.Equal(t, []string{"2019.2.0", "2019.2.0.update"}, tags)
}

func TestRepoIndexFileAdapter_Caching(t *testing.T) {
	path := writeRepoIndex(t, sampleRepoIndex)
	adapter := NewRepoIndexFileAdapter(path)

	v1, err := adapter.Entries("curl")
	require.NoError(t, err)

	// Remove the file -- should still work from cache
	require.NoError(t, os.Remove(path))

	v2, err := adapter.Entries("curl")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestRepoIndexFileAdapter_InstancesDoNotShareState(t *testing.T) {
	first := NewRepoIndexFileAdapter(writeRepoIndex(t, sampleRepoIndex))
	second := NewRepoIndexFileAdapter(writeRepoIndex(t, "packages: {}\n"))

	_, err := first.Load()
	require.NoError(t, err)
	names, err := second.PackageNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRepoIndexFileAdapter_MissingFile(t *testing.T) {
	adapter := NewRepoIndexFileAdapter("/nonexistent/path/repo-index.yaml")
	_, err := adapter.Entries("curl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo index file not found")
}

func TestRepoIndexFileAdapter_InvalidYAML(t *testing.T) {
	adapter := NewRepoIndexFileAdapter(writeRepoIndex(t, "{{{{invalid yaml"))
	_, err := adapter.Entries("curl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid repo index format")
}

func TestHeaderFromKey(t *testing.T) {
	assert.Equal(t, types.RepoHeader{
		Tag: "2019.2.0", Subset: "openstack-queens", Release: "ubuntu",
		UbuntuRelease: "xenial", Type: "main", Arch: "amd64",
	}, headerFromKey("2019.2.0_openstack-queens_ubuntu_xenial_main_amd64"))

	assert.Equal(t, "salt_formulas", headerFromKey("t_salt_formulas_ubuntu_xenial_main_amd64").Subset)
	assert.Equal(t, types.RepoHeader{Tag: "odd"}, headerFromKey("odd_key"))
}
