package ports

import "fleet-packages/internal/types"

// RepoIndexPort is read-only access to a repository index.
type RepoIndexPort interface {
	// Entries flattens every (version, header) pair known for a package.
	// Unknown packages yield an empty slice and no error.
	Entries(name string) ([]types.RepoTuple, error)
	PackageNames() ([]string, error)
	Tags() ([]string, error)
}
