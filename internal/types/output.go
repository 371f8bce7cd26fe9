package types

// AuditReport is the serialized form of a finished audit.
type AuditReport struct {
	GeneratedAt string                     `yaml:"generated_at,omitempty"`
	Tag         string                     `yaml:"tag"`
	OSRelease   string                     `yaml:"os_release"`
	Nodes       []string                   `yaml:"nodes"`
	Total       int                        `yaml:"total"`
	Omitted     int                        `yaml:"omitted"`
	Errors      map[Bucket]int             `yaml:"errors"`
	Warnings    map[Bucket]int             `yaml:"warnings"`
	Downgrades  map[Bucket]int             `yaml:"downgrades"`
	Packages    map[Bucket][]PackageReport `yaml:"packages"`
}

// ResultTree is status name -> action name -> node -> result.
type ResultTree map[string]map[string]map[string]NodeReport

type PackageReport struct {
	Name        string             `yaml:"name"`
	Description PackageDescription `yaml:"desc"`
	Maintainer  string             `yaml:"maintainer"`
	Ownership   Ownership          `yaml:"ownership,omitempty"`
	Release     string             `yaml:"release"`
	Repos       []RepoRef          `yaml:"repos,omitempty"`
	Results     ResultTree         `yaml:"results"`
}

// NodeReport carries one node's versions plus the per-part status of
// the installed version against the target.
type NodeReport struct {
	Installed string `yaml:"installed"`
	Candidate string `yaml:"candidate"`
	Target    string `yaml:"target"`
	Epoch     string `yaml:"epoch"`
	Upstream  string `yaml:"upstream"`
	Debian    string `yaml:"debian"`
	Raw       string `yaml:"raw,omitempty"`
}
