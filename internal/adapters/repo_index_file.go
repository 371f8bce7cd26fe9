package adapters

import (
	"os"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/shared"
	"fleet-packages/internal/types"
)

type RepoIndexFileAdapter struct {
	Path   string
	cached types.RepoIndexFile
	loaded bool
}

func NewRepoIndexFileAdapter(path string) *RepoIndexFileAdapter {
	return &RepoIndexFileAdapter{Path: path}
}

// Load reads the index once. Later calls return the cached copy.
func (a *RepoIndexFileAdapter) Load() (types.RepoIndexFile, error) {
	return a.load()
}

func (a *RepoIndexFileAdapter) Entries(name string) ([]types.RepoTuple, error) {
	index, err := a.load()
	if err != nil {
		return nil, err
	}
	var out []types.RepoTuple
	for _, entry := range index.Packages[name] {
		for _, key := range entry.Repos {
			header, ok := index.Headers[key]
			if !ok {
				continue
			}
			out = append(out, types.RepoTuple{
				Section:    entry.Section,
				App:        entry.App,
				Version:    entry.Version,
				Maintainer: entry.Maintainer,
				MD5:        entry.MD5,
				Header:     header,
			})
		}
	}
	return out, nil
}

func (a *RepoIndexFileAdapter) PackageNames() ([]string, error) {
	index, err := a.load()
	if err != nil {
		return nil, err
	}
	return shared.SortedKeys(index.Packages), nil
}

func (a *RepoIndexFileAdapter) Tags() ([]string, error) {
	index, err := a.load()
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, header := range index.Headers {
		if header.Tag != "" {
			seen[header.Tag] = struct{}{}
		}
	}
	return mapKeys(seen), nil
}

func (a *RepoIndexFileAdapter) load() (types.RepoIndexFile, error) {
	if a.loaded {
		return a.cached, nil
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return types.RepoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("repo index file not found").
			WithCause(err)
	}
	var idx types.RepoIndexFile
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return types.RepoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid repo index format").
			WithCause(err)
	}
	if idx.Headers == nil {
		idx.Headers = map[string]types.RepoHeader{}
	}
	if idx.Packages == nil {
		idx.Packages = map[string][]types.IndexEntry{}
	}
	// header keys written by hand may lack the tag fields; derive them
	for key, header := range idx.Headers {
		if header.Tag == "" {
			header = headerFromKey(key)
			idx.Headers[key] = header
		}
	}
	a.cached = idx
	a.loaded = true
	return idx, nil
}

// headerFromKey splits tag_subset_release_ubuntu-release_type_arch. The
// subset may itself contain underscores, so the tail fields are taken
// from the right.
func headerFromKey(key string) types.RepoHeader {
	parts := strings.Split(key, "_")
	if len(parts) < 6 {
		return types.RepoHeader{Tag: parts[0]}
	}
	n := len(parts)
	return types.RepoHeader{
		Tag:           parts[0],
		Subset:        strings.Join(parts[1:n-4], "_"),
		Release:       parts[n-4],
		UbuntuRelease: parts[n-3],
		Type:          parts[n-2],
		Arch:          parts[n-1],
	}
}

func mapKeys(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

var _ ports.RepoIndexPort = (*RepoIndexFileAdapter)(nil)
