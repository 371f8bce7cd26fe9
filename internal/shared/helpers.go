// Package shared provides common utility functions used across multiple
// packages in the fleet-packages codebase.
package shared

import (
	"fmt"
	"sort"
	"strings"
)

// SplitList flattens flag values that may themselves be comma separated,
// trimming blanks and dropping duplicates while keeping first-seen order.
func SplitList(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

// SortedKeys returns the keys of a string-keyed map in ascending order.
func SortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}
