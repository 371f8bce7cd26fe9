package policies

import (
	"strings"

	"fleet-packages/internal/types"
)

// DefaultCriticalMaintainers matches the product team's mail domain.
var DefaultCriticalMaintainers = []string{"@mirantis.com>"}

// MaintainerPolicy decides whether a maintainer string belongs to a
// critical (product-owned) package.
type MaintainerPolicy struct {
	suffixes []string
}

func NewMaintainerPolicy(suffixes []string) MaintainerPolicy {
	policy := MaintainerPolicy{}
	for _, suffix := range suffixes {
		suffix = strings.ToLower(strings.TrimSpace(suffix))
		if suffix != "" {
			policy.suffixes = append(policy.suffixes, suffix)
		}
	}
	if len(policy.suffixes) == 0 {
		policy.suffixes = append(policy.suffixes, DefaultCriticalMaintainers...)
	}
	return policy
}

func (p MaintainerPolicy) IsCritical(maintainer string) bool {
	value := strings.ToLower(strings.TrimSpace(maintainer))
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(value, suffix) {
			return true
		}
	}
	return false
}

// Ownership classifies the maintainers seen for a package under one tag.
// No maintainers at all means the package is not listed for the tag.
func (p MaintainerPolicy) Ownership(maintainers []string) types.Ownership {
	if len(maintainers) == 0 {
		return types.OwnershipUnknown
	}
	for _, maintainer := range maintainers {
		if p.IsCritical(maintainer) {
			return types.OwnershipCritical
		}
	}
	return types.OwnershipOther
}
