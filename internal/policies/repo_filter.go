package policies

import (
	"regexp"
	"strings"

	"fleet-packages/internal/types"
)

var headerTokenSplit = regexp.MustCompile(`[-_]+`)

// RepoFilter selects repository slices for release resolution by tag and
// by keywords found in the repo header ID.
type RepoFilter struct {
	Tag     string
	include []string
	exclude map[string]struct{}
}

// NewRepoFilter drops blank keywords: an empty include keyword would
// otherwise never match a header token.
func NewRepoFilter(tag string, include []string, exclude []string) RepoFilter {
	filter := RepoFilter{
		Tag:     strings.TrimSpace(tag),
		exclude: map[string]struct{}{},
	}
	for _, keyword := range include {
		keyword = strings.TrimSpace(keyword)
		if keyword != "" {
			filter.include = append(filter.include, keyword)
		}
	}
	for _, keyword := range exclude {
		keyword = strings.TrimSpace(keyword)
		if keyword != "" {
			filter.exclude[keyword] = struct{}{}
		}
	}
	return filter
}

// MatchTag accepts the tag itself and its ".update" variant. Hotfix
// repositories never provide the default release baseline.
func (f RepoFilter) MatchTag(tag string) bool {
	if f.Tag == "" {
		return true
	}
	if tag == f.Tag {
		return true
	}
	return tag == f.Tag+types.TagSuffixUpdate
}

// MatchHeader requires every include keyword and no exclude keyword
// among the header tokens.
func (f RepoFilter) MatchHeader(headerID string) bool {
	tokens := map[string]struct{}{}
	for _, token := range HeaderTokens(headerID) {
		tokens[token] = struct{}{}
	}
	for _, keyword := range f.include {
		if _, ok := tokens[keyword]; !ok {
			return false
		}
	}
	for token := range tokens {
		if _, ok := f.exclude[token]; ok {
			return false
		}
	}
	return true
}

func (f RepoFilter) Match(tuple types.RepoTuple) bool {
	return f.MatchTag(tuple.Header.Tag) && f.MatchHeader(tuple.Header.ID())
}

func HeaderTokens(headerID string) []string {
	var out []string
	for _, token := range headerTokenSplit.Split(headerID, -1) {
		if token != "" {
			out = append(out, token)
		}
	}
	return out
}

// BaseTag strips a trailing ".update" or ".hotfix".
func BaseTag(tag string) string {
	for _, suffix := range []string{types.TagSuffixUpdate, types.TagSuffixHotfix} {
		if strings.HasSuffix(tag, suffix) {
			return strings.TrimSuffix(tag, suffix)
		}
	}
	return tag
}
