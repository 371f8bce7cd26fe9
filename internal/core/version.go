package core

import (
	"sort"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"

	"fleet-packages/internal/types"
)

const absentVersion = "n/a"

// Version is a Debian-style version split into the fields the audit
// compares. A Version with an empty Raw is the absent sentinel and sorts
// below every parsed version.
//
// Ordering only looks at Epoch, Upstream and UpstreamRev. Debian and
// DebianRev are carried for display and per-field status flags.
type Version struct {
	Epoch       string
	Upstream    string
	UpstreamRev string
	Debian      string
	DebianRev   string
	Raw         string

	EpochStatus    types.VersionStatus
	UpstreamStatus types.VersionStatus
	DebianStatus   types.VersionStatus
}

// ParseVersion never fails: empty strings and the apt "(none)"
// placeholder yield the absent sentinel.
func ParseVersion(raw string) Version {
	value := strings.TrimSpace(raw)
	if isAbsentValue(value) {
		return Version{}
	}
	epoch := ""
	main := value
	if idx := strings.Index(value, ":"); idx >= 0 {
		epoch = value[:idx]
		main = value[idx+1:]
	}
	debian := ""
	if idx := strings.LastIndex(main, "-"); idx >= 0 {
		debian = main[idx+1:]
		main = main[:idx]
	}
	v := Version{Epoch: epoch, Raw: value}
	v.Upstream, v.UpstreamRev = SplitRevision(main)
	v.Debian, v.DebianRev = SplitRevision(debian)
	return v
}

func isAbsentValue(value string) bool {
	switch strings.ToLower(value) {
	case "", "(none)", "none", absentVersion:
		return true
	}
	return false
}

// AbsentVersion returns the sentinel.
func AbsentVersion() Version {
	return Version{}
}

func (v Version) IsAbsent() bool {
	return v.Raw == ""
}

func (v Version) String() string {
	if v.IsAbsent() {
		return absentVersion
	}
	return v.Raw
}

// SplitRevision splits a fragment into its leading run of digits and
// dots and the remainder, which keeps its separator ("-", "+", "~" or
// any other non-numeric character).
func SplitRevision(fragment string) (string, string) {
	for i := 0; i < len(fragment); i++ {
		if !isNumericChar(fragment[i]) {
			return fragment[:i], fragment[i:]
		}
	}
	return fragment, ""
}

func isNumericChar(c byte) bool {
	return c == '.' || (c >= '0' && c <= '9')
}

// NumericCompare compares dot separated numbers component by component.
// When all shared components are equal the longer sequence wins.
func NumericCompare(a string, b string) int {
	left := strings.Split(a, ".")
	right := strings.Split(b, ".")
	for i := 0; i < len(left) && i < len(right); i++ {
		if cmp := compareDigits(left[i], right[i]); cmp != 0 {
			return cmp
		}
	}
	return compareInts(len(left), len(right))
}

// compareDigits compares two decimal strings without converting them, so
// long date-like components cannot overflow. Non-numeric input counts as
// zero.
func compareDigits(a string, b string) int {
	a = normalizeDigits(a)
	b = normalizeDigits(b)
	if len(a) != len(b) {
		return compareInts(len(a), len(b))
	}
	return strings.Compare(a, b)
}

func normalizeDigits(value string) string {
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return ""
		}
	}
	return strings.TrimLeft(value, "0")
}

func compareInts(a int, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// LexicalCompare orders by code point with the longer string winning a
// shared prefix. UTF-8 byte order matches code point order.
func LexicalCompare(a string, b string) int {
	return strings.Compare(a, b)
}

// Compare returns -1, 0 or 1. The absent sentinel equals only itself.
func Compare(a Version, b Version) int {
	switch {
	case a.IsAbsent() && b.IsAbsent():
		return 0
	case a.IsAbsent():
		return -1
	case b.IsAbsent():
		return 1
	}
	if cmp := NumericCompare(a.Epoch, b.Epoch); cmp != 0 {
		return cmp
	}
	if cmp := NumericCompare(a.Upstream, b.Upstream); cmp != 0 {
		return cmp
	}
	return LexicalCompare(a.UpstreamRev, b.UpstreamRev)
}

func (v Version) Less(other Version) bool {
	return Compare(v, other) < 0
}

func (v Version) Equal(other Version) bool {
	return Compare(v, other) == 0
}

func (v Version) Greater(other Version) bool {
	return Compare(v, other) > 0
}

// UpdatePartStatus flags each field that differs from target with status
// and the rest with OK. It is display-only and does not affect ordering.
func (v *Version) UpdatePartStatus(target Version, status types.VersionStatus) {
	if v.IsAbsent() || target.IsAbsent() {
		flag := status
		if v.IsAbsent() && target.IsAbsent() {
			flag = types.VersionOK
		}
		v.EpochStatus, v.UpstreamStatus, v.DebianStatus = flag, flag, flag
		return
	}
	v.EpochStatus = partStatus(NumericCompare(v.Epoch, target.Epoch) != 0, status)
	v.UpstreamStatus = partStatus(
		NumericCompare(v.Upstream, target.Upstream) != 0 ||
			LexicalCompare(v.UpstreamRev, target.UpstreamRev) != 0,
		status,
	)
	v.DebianStatus = partStatus(
		LexicalCompare(v.Debian, target.Debian) != 0 ||
			LexicalCompare(v.DebianRev, target.DebianRev) != 0,
		status,
	)
}

func partStatus(differs bool, status types.VersionStatus) types.VersionStatus {
	if differs {
		return status
	}
	return types.VersionOK
}

// dpkgCache memoizes parsed dpkg versions while sorting.
type dpkgCache struct {
	parsed map[string]debversion.Version
	failed map[string]struct{}
}

func newDpkgCache() *dpkgCache {
	return &dpkgCache{
		parsed: map[string]debversion.Version{},
		failed: map[string]struct{}{},
	}
}

func (c *dpkgCache) version(value string) (debversion.Version, bool) {
	if parsed, ok := c.parsed[value]; ok {
		return parsed, true
	}
	if _, ok := c.failed[value]; ok {
		return debversion.Version{}, false
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		c.failed[value] = struct{}{}
		return debversion.Version{}, false
	}
	c.parsed[value] = parsed
	return parsed, true
}

// DpkgCompare orders two version strings with full dpkg semantics. It is
// used for display and cross-checks only; classification uses Compare.
func DpkgCompare(a string, b string) (int, error) {
	v1, err := debversion.NewVersion(a)
	if err != nil {
		return 0, err
	}
	v2, err := debversion.NewVersion(b)
	if err != nil {
		return 0, err
	}
	return v1.Compare(v2), nil
}

// SortDpkg sorts versions ascending in dpkg order in place. Strings dpkg
// cannot parse sort after the valid ones, lexically.
func SortDpkg(versions []string) []string {
	cache := newDpkgCache()
	sort.SliceStable(versions, func(i, j int) bool {
		vi, okI := cache.version(versions[i])
		vj, okJ := cache.version(versions[j])
		switch {
		case okI && okJ:
			return vi.LessThan(vj)
		case okI != okJ:
			return okI
		default:
			return versions[i] < versions[j]
		}
	})
	return versions
}
