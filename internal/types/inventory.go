package types

// FleetInventory is the audit input: fleet-wide facts plus every node's
// installed packages.
type FleetInventory struct {
	Tag       string               `yaml:"tag"`
	OSRelease string               `yaml:"os_release"`
	Nodes     map[string]*NodeInfo `yaml:"nodes"`
}

type NodeInfo struct {
	Codename  string                  `yaml:"linux_codename"`
	Arch      string                  `yaml:"linux_arch"`
	Inventory string                  `yaml:"inventory,omitempty"`
	Packages  map[string]PackageState `yaml:"packages,omitempty"`
}

// PackageState is what the node-side collector reports per package.
type PackageState struct {
	Installed string `yaml:"installed" json:"installed"`
	Candidate string `yaml:"candidate" json:"candidate"`
	Raw       string `yaml:"raw,omitempty" json:"raw,omitempty"`
}
