package types

import "strings"

// RepoIndexFile is the on-disk repository index. Headers are keyed by
// RepoHeader.Key(); package entries reference them in Repos.
type RepoIndexFile struct {
	Headers  map[string]RepoHeader   `yaml:"headers"`
	Packages map[string][]IndexEntry `yaml:"packages"`
}

// RepoHeader identifies one repository slice. It is a value type and is
// never mutated after creation.
type RepoHeader struct {
	Tag           string `yaml:"tag"`
	Subset        string `yaml:"subset"`
	Release       string `yaml:"release"`
	UbuntuRelease string `yaml:"ubuntu-release"`
	Type          string `yaml:"type"`
	Arch          string `yaml:"arch"`
}

// Key joins all header fields with underscores, tag first.
func (h RepoHeader) Key() string {
	return strings.Join([]string{h.Tag, h.Subset, h.Release, h.UbuntuRelease, h.Type, h.Arch}, "_")
}

// ID is the key without the tag.
func (h RepoHeader) ID() string {
	return strings.Join([]string{h.Subset, h.Release, h.UbuntuRelease, h.Type, h.Arch}, "_")
}

type IndexEntry struct {
	Version    string   `yaml:"version"`
	MD5        string   `yaml:"md5,omitempty"`
	Section    string   `yaml:"section,omitempty"`
	App        string   `yaml:"app,omitempty"`
	Maintainer string   `yaml:"maintainer,omitempty"`
	Repos      []string `yaml:"repos"`
}

// RepoTuple is one (section, app, tag, version, header) row of the
// index for a single package.
type RepoTuple struct {
	Section    string
	App        string
	Version    string
	Maintainer string
	MD5        string
	Header     RepoHeader
}

// RepoRef is a tuple that survived release filtering.
type RepoRef struct {
	Section    string     `yaml:"section"`
	App        string     `yaml:"app"`
	HeaderID   string     `yaml:"header"`
	Maintainer string     `yaml:"maintainer"`
	MD5        string     `yaml:"md5,omitempty"`
	Header     RepoHeader `yaml:"-"`
}

// PackageDescription comes from the description CSV.
type PackageDescription struct {
	Section string `yaml:"section"`
	App     string `yaml:"app"`
	Repo    string `yaml:"repo"`
}

// Listed reports whether the description came from the CSV.
func (d PackageDescription) Listed() bool {
	return d.Section != "" || d.App != "" || (d.Repo != "" && d.Repo != DefaultDescriptionRepo)
}

const DefaultDescriptionRepo = "other"

// EmptyDescription is returned for packages missing from the CSV.
func EmptyDescription() PackageDescription {
	return PackageDescription{Repo: DefaultDescriptionRepo}
}
