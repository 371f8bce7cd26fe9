package adapters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/gzip"
	debversion "github.com/knqyf263/go-deb-version"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/shared"
	"fleet-packages/internal/types"
)

type RepoIndexBuilderAdapter struct{}

type RepoIndexWriterAdapter struct{}

// repoSource is one Packages file to fetch and the header its entries
// are filed under.
type repoSource struct {
	Endpoint string
	Header   types.RepoHeader
}

// packageStanza holds the control fields the index keeps.
type packageStanza struct {
	Name       string
	Version    string
	Maintainer string
	Section    string
	Source     string
	MD5        string
}

const defaultFetchWorkers = 4
const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

func NewRepoIndexBuilderAdapter() RepoIndexBuilderAdapter {
	return RepoIndexBuilderAdapter{}
}

func NewRepoIndexWriterAdapter() RepoIndexWriterAdapter {
	return RepoIndexWriterAdapter{}
}

func (a RepoIndexBuilderAdapter) Build(ctx context.Context, request ports.RepoIndexBuildRequest) (types.RepoIndexFile, error) {
	sources, err := parseRepoSources(request.Sources)
	if err != nil {
		return types.RepoIndexFile{}, err
	}
	if len(sources) == 0 {
		return types.RepoIndexFile{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("at least one repo source is required")
	}
	httpCfg := normalizeHTTPConfig(request.HTTPTimeoutSec, request.HTTPRetries, request.HTTPRetryDelayMs)
	merger := newIndexMerger()
	if err := fetchSources(ctx, sources, request.User, request.APIKey, request.Workers, httpCfg, merger); err != nil {
		return types.RepoIndexFile{}, err
	}
	index := merger.finalize()
	log.Ctx(ctx).Info().
		Int("sources", len(sources)).
		Int("packages", len(index.Packages)).
		Int("md5_conflicts", merger.conflicts).
		Msg("repo index built")
	return index, nil
}

func (a RepoIndexWriterAdapter) Write(path string, index types.RepoIndexFile) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is required")
	}
	data, err := yaml.Marshal(index)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal repo index").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create repo index directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write repo index").
			WithCause(err)
	}
	return nil
}

// parseRepoSources reads endpoint|tag|subset|release|ubuntu-release|type|arch
// entries. Type defaults to main and arch to amd64.
func parseRepoSources(values []string) ([]repoSource, error) {
	var sources []repoSource
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parts := strings.Split(raw, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 5 || parts[0] == "" || parts[1] == "" || parts[4] == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid repo source entry %q", raw))
		}
		header := types.RepoHeader{
			Tag:           parts[1],
			Subset:        parts[2],
			Release:       parts[3],
			UbuntuRelease: parts[4],
			Type:          "main",
			Arch:          "amd64",
		}
		if len(parts) > 5 && parts[5] != "" {
			header.Type = parts[5]
		}
		if len(parts) > 6 && parts[6] != "" {
			header.Arch = parts[6]
		}
		sources = append(sources, repoSource{
			Endpoint: strings.TrimRight(parts[0], "/"),
			Header:   header,
		})
	}
	return sources, nil
}

func fetchSources(ctx context.Context, sources []repoSource, user string, apiKey string, workerCount int, httpCfg httpRetryConfig, merger *indexMerger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var errMu sync.Mutex
	var firstErr error
	if workerCount <= 0 {
		workerCount = defaultFetchWorkers
	}
	if len(sources) < workerCount {
		workerCount = len(sources)
	}
	sem := make(chan struct{}, workerCount)
	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			stanzas, err := fetchSource(ctx, source, user, apiKey, httpCfg)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				errMu.Unlock()
				return
			}
			merger.add(ctx, source.Header, stanzas)
		}()
	}
	wg.Wait()
	return firstErr
}

func fetchSource(ctx context.Context, source repoSource, user string, apiKey string, httpCfg httpRetryConfig) ([]packageStanza, error) {
	h := source.Header
	base := fmt.Sprintf("%s/dists/%s/%s/binary-%s/Packages", source.Endpoint, h.UbuntuRelease, h.Type, h.Arch)
	stanzas, notFound, err := fetchPackages(ctx, base+".gz", user, apiKey, httpCfg)
	if err != nil {
		return nil, err
	}
	if notFound {
		stanzas, notFound, err = fetchPackages(ctx, base, user, apiKey, httpCfg)
		if err != nil {
			return nil, err
		}
		if notFound {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("packages file not found").
				WithCause(shared.HTTPStatusError(http.StatusNotFound, base))
		}
	}
	log.Ctx(ctx).Debug().
		Str("header", h.Key()).
		Int("packages", len(stanzas)).
		Msg("packages file fetched")
	return stanzas, nil
}

func fetchPackages(ctx context.Context, url string, user string, apiKey string, httpCfg httpRetryConfig) ([]packageStanza, bool, error) {
	resp, err := doRequest(ctx, url, user, apiKey, httpCfg)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch packages file").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	var reader io.Reader = resp.Body
	if strings.HasSuffix(url, ".gz") || strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, false, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read gzipped packages file").
				WithCause(err)
		}
		defer gz.Close()
		reader = gz
	}
	stanzas, err := parsePackagesFile(reader)
	if err != nil {
		return nil, false, err
	}
	return stanzas, false, nil
}

// parsePackagesFile reads Debian control stanzas. Continuation lines of
// multi-line fields are skipped.
func parsePackagesFile(reader io.Reader) ([]packageStanza, error) {
	var stanzas []packageStanza
	var current packageStanza
	flush := func() {
		if current.Name != "" && current.Version != "" {
			stanzas = append(stanzas, current)
		}
		current = packageStanza{}
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Package":
			current.Name = value
		case "Version":
			current.Version = value
		case "Maintainer":
			current.Maintainer = value
		case "Section":
			current.Section = value
		case "Source":
			// "Source: name (version)" when the binary version differs
			current.Source, _, _ = strings.Cut(value, " ")
		case "MD5sum":
			current.MD5 = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read packages file").
			WithCause(err)
	}
	flush()
	return stanzas, nil
}

type entryKey struct {
	version    string
	md5        string
	maintainer string
}

// indexMerger folds stanzas from many sources into one index. It is
// shared by the fetch workers.
type indexMerger struct {
	mu        sync.Mutex
	headers   map[string]types.RepoHeader
	entries   map[string]map[entryKey]*types.IndexEntry
	md5s      map[string]string
	conflicts int
}

func newIndexMerger() *indexMerger {
	return &indexMerger{
		headers: map[string]types.RepoHeader{},
		entries: map[string]map[entryKey]*types.IndexEntry{},
		md5s:    map[string]string{},
	}
}

func (m *indexMerger) add(ctx context.Context, header types.RepoHeader, stanzas []packageStanza) {
	m.mu.Lock()
	defer m.mu.Unlock()
	headerKey := header.Key()
	m.headers[headerKey] = header
	for _, stanza := range stanzas {
		seenKey := stanza.Name + "|" + stanza.Version + "|" + headerKey
		if previous, ok := m.md5s[seenKey]; ok && previous != stanza.MD5 {
			m.conflicts++
			log.Ctx(ctx).Warn().
				Str("package", stanza.Name).
				Str("version", stanza.Version).
				Str("header", headerKey).
				Str("md5", stanza.MD5).
				Str("previous_md5", previous).
				Msg("conflicting md5 for the same package version")
		} else if !ok {
			m.md5s[seenKey] = stanza.MD5
		}
		key := entryKey{version: stanza.Version, md5: stanza.MD5, maintainer: stanza.Maintainer}
		if m.entries[stanza.Name] == nil {
			m.entries[stanza.Name] = map[entryKey]*types.IndexEntry{}
		}
		entry, ok := m.entries[stanza.Name][key]
		if !ok {
			app := stanza.Source
			if app == "" {
				app = stanza.Name
			}
			entry = &types.IndexEntry{
				Version:    stanza.Version,
				MD5:        stanza.MD5,
				Section:    stanza.Section,
				App:        app,
				Maintainer: stanza.Maintainer,
			}
			m.entries[stanza.Name][key] = entry
		}
		if !containsString(entry.Repos, headerKey) {
			entry.Repos = append(entry.Repos, headerKey)
		}
	}
}

func (m *indexMerger) finalize() types.RepoIndexFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := types.RepoIndexFile{
		Headers:  map[string]types.RepoHeader{},
		Packages: map[string][]types.IndexEntry{},
	}
	for key, header := range m.headers {
		index.Headers[key] = header
	}
	for name, entries := range m.entries {
		list := make([]types.IndexEntry, 0, len(entries))
		for _, entry := range entries {
			sort.Strings(entry.Repos)
			list = append(list, *entry)
		}
		sortIndexEntries(list)
		index.Packages[name] = list
	}
	return index
}

// sortIndexEntries orders entries by dpkg version, then md5 and
// maintainer. Versions dpkg rejects sort last.
func sortIndexEntries(entries []types.IndexEntry) {
	parsed := map[string]*debversion.Version{}
	version := func(raw string) *debversion.Version {
		if v, ok := parsed[raw]; ok {
			return v
		}
		v, err := debversion.NewVersion(raw)
		if err != nil {
			parsed[raw] = nil
			return nil
		}
		parsed[raw] = &v
		return &v
	}
	sort.SliceStable(entries, func(i, j int) bool {
		vi, vj := version(entries[i].Version), version(entries[j].Version)
		switch {
		case vi != nil && vj != nil && !vi.Equal(*vj):
			return vi.LessThan(*vj)
		case (vi == nil) != (vj == nil):
			return vi != nil
		case entries[i].Version != entries[j].Version:
			return entries[i].Version < entries[j].Version
		case entries[i].MD5 != entries[j].MD5:
			return entries[i].MD5 < entries[j].MD5
		default:
			return entries[i].Maintainer < entries[j].Maintainer
		}
	})
}

func containsString(values []string, value string) bool {
	for _, item := range values {
		if item == value {
			return true
		}
	}
	return false
}

func doRequest(ctx context.Context, url string, user string, apiKey string, cfg httpRetryConfig) (*http.Response, error) {
	client := &http.Client{Timeout: cfg.timeout}
	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create request").
				WithCause(err)
		}
		if strings.TrimSpace(apiKey) != "" {
			authUser := strings.TrimSpace(user)
			if authUser == "" {
				authUser = "api"
			}
			req.SetBasicAuth(authUser, apiKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("request canceled").
					WithCause(ctx.Err())
			}
			lastErr = err
			if attempt < cfg.retries-1 {
				time.Sleep(httpRetryDelay(attempt, cfg))
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			time.Sleep(httpRetryDelay(attempt, cfg))
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

var _ ports.RepoIndexBuilderPort = RepoIndexBuilderAdapter{}
var _ ports.RepoIndexWriterPort = RepoIndexWriterAdapter{}
