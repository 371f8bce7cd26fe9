package types

import "strings"

// VersionStatus is ordered: a higher value is more severe and is shown
// first in reports.
type VersionStatus int

const (
	VersionNA VersionStatus = iota
	VersionOK
	VersionUp
	VersionDown
	VersionWarn
	VersionErr
)

var versionStatusNames = map[VersionStatus]string{
	VersionNA:   "nostatus",
	VersionOK:   "ok",
	VersionUp:   "upgraded",
	VersionDown: "downgraded",
	VersionWarn: "warning",
	VersionErr:  "error",
}

func (s VersionStatus) String() string {
	if name, ok := versionStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s VersionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Action is ordered the same way as VersionStatus.
type Action int

const (
	ActionNA Action = iota
	ActionUpgrade
	ActionNeedUp
	ActionNeedDown
	ActionRepo
)

var actionNames = map[Action]string{
	ActionNA:       "none",
	ActionUpgrade:  "upgrade possible",
	ActionNeedUp:   "needs upgrade",
	ActionNeedDown: "needs downgrade",
	ActionRepo:     "repo update",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

type Bucket string

const (
	BucketCritical Bucket = "critical"
	BucketSystem   Bucket = "system"
	BucketOther    Bucket = "other"
	BucketUnlisted Bucket = "unlisted"
)

// AllBuckets lists buckets in report order.
var AllBuckets = []Bucket{BucketCritical, BucketSystem, BucketOther, BucketUnlisted}

// Ownership tells whether a package is maintained by one of the
// critical maintainers for a given tag.
type Ownership string

const (
	OwnershipUnknown  Ownership = ""
	OwnershipCritical Ownership = "critical"
	OwnershipOther    Ownership = "other"
)

// ParseOwnership accepts the values written by MarshalText and is
// lenient about case.
func ParseOwnership(value string) Ownership {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(OwnershipCritical):
		return OwnershipCritical
	case string(OwnershipOther):
		return OwnershipOther
	default:
		return OwnershipUnknown
	}
}

const (
	TagSuffixUpdate = ".update"
	TagSuffixHotfix = ".hotfix"
)
