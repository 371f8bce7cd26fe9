package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	mosMaintainer    = "MOS Linux <mos-linux@mirantis.com>"
	ubuntuMaintainer = "Ubuntu Developers <ubuntu-devel-discuss@lists.ubuntu.com>"
)

const fixtureRepoIndex = `
headers:
  2019.2.0_openstack-queens_ubuntu_xenial_main_amd64: {}
  2019.2.0_ubuntu_ubuntu_xenial_main_amd64: {}
  2019.2.0.hotfix_openstack-queens_ubuntu_xenial_main_amd64: {}
  2019.2.0_nightly-queens_ubuntu_xenial_main_amd64: {}
  2019.2.0.update_ubuntu_ubuntu_xenial_main_amd64: {}
packages:
  nova-common:
    - version: "2:17.0.10-1"
      section: openstack
      app: nova
      maintainer: "MOS Linux <mos-linux@mirantis.com>"
      repos: [2019.2.0_openstack-queens_ubuntu_xenial_main_amd64]
    - version: "2:17.0.12-1"
      section: openstack
      app: nova
      maintainer: "MOS Linux <mos-linux@mirantis.com>"
      repos: [2019.2.0.hotfix_openstack-queens_ubuntu_xenial_main_amd64]
    - version: "2:17.0.13-1"
      section: openstack
      app: nova
      maintainer: "MOS Linux <mos-linux@mirantis.com>"
      repos: [2019.2.0_nightly-queens_ubuntu_xenial_main_amd64]
  libvirt0:
    - version: "4.0.0-1"
      section: libs
      app: libvirt
      maintainer: "MOS Linux <mos-linux@mirantis.com>"
      repos: [2019.2.0_openstack-queens_ubuntu_xenial_main_amd64]
  bash:
    - version: "4.4-1"
      section: shells
      maintainer: "Ubuntu Developers <ubuntu-devel-discuss@lists.ubuntu.com>"
      repos: [2019.2.0.update_ubuntu_ubuntu_xenial_main_amd64]
  curl:
    - version: "7.47.0-1ubuntu2.14"
      section: net
      maintainer: "Ubuntu Developers <ubuntu-devel-discuss@lists.ubuntu.com>"
      repos: [2019.2.0_ubuntu_ubuntu_xenial_main_amd64]
`

const fixtureInventory = `
tag: 2019.2.0
os_release: queens
nodes:
  cmp01:
    linux_codename: xenial
    linux_arch: amd64
    inventory: cmp01.json
  cmp02:
    linux_codename: xenial
    linux_arch: amd64
    packages:
      nova-common: {installed: "2:17.0.10-1", candidate: "2:17.0.10-1"}
      bash: {installed: "4.4-1", candidate: "4.4-1"}
      curl: {installed: "7.47.0-1ubuntu2.14", candidate: "7.47.0-1ubuntu2.14"}
  ctl01:
    linux_codename: xenial
    linux_arch: amd64
`

const fixtureNodeInventory = `collector v1
{
  "nova-common": {"installed": "2:17.0.9-6", "candidate": "2:17.0.10-1", "raw": "nova-common:\n  Installed: 2:17.0.9-6"},
  "libvirt0": {"installed": "3.6.0-1", "candidate": "4.0.0-1"},
  "bash": {"installed": "4.3-14", "candidate": "4.4-1"},
  "curl": {"installed": "7.47.0-1ubuntu2.14", "candidate": "7.47.0-1ubuntu2.14"},
  "htop": {"installed": "2.0.1-1", "candidate": "2.0.2-1"}
}
`

const fixtureDescriptions = `package_name,component,application_or_service,repo,openstack_release
bash,System,shell,ubuntu,queens
nova-common,OpenStack,nova,mcp,queens
`

type fixturePaths struct {
	Dir          string
	Inventory    string
	RepoIndex    string
	Descriptions string
}

func writeFixtures(t *testing.T) fixturePaths {
	t.Helper()
	dir := t.TempDir()
	paths := fixturePaths{
		Dir:          dir,
		Inventory:    filepath.Join(dir, "fleet.yaml"),
		RepoIndex:    filepath.Join(dir, "repo-index.yaml"),
		Descriptions: filepath.Join(dir, "descriptions.csv"),
	}
	require.NoError(t, os.WriteFile(paths.Inventory, []byte(fixtureInventory), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmp01.json"), []byte(fixtureNodeInventory), 0644))
	require.NoError(t, os.WriteFile(paths.RepoIndex, []byte(fixtureRepoIndex), 0644))
	require.NoError(t, os.WriteFile(paths.Descriptions, []byte(fixtureDescriptions), 0644))
	return paths
}

func fixedService() Service {
	service := NewService()
	service.Clock = func() time.Time {
		return time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	}
	return service
}
