package adapters

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/types"
)

type InventoryFileAdapter struct{}

func NewInventoryFileAdapter() InventoryFileAdapter {
	return InventoryFileAdapter{}
}

// LoadInventory reads the fleet file and every per-node inventory it
// references. A broken node inventory is logged and leaves the node
// with whatever inline packages it has.
func (a InventoryFileAdapter) LoadInventory(ctx context.Context, path string) (types.FleetInventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.FleetInventory{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("inventory file not found").
			WithCause(err)
	}
	var inventory types.FleetInventory
	if err := yaml.Unmarshal(data, &inventory); err != nil {
		return types.FleetInventory{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid inventory format").
			WithCause(err)
	}
	if inventory.Nodes == nil {
		inventory.Nodes = map[string]*types.NodeInfo{}
	}
	baseDir := filepath.Dir(path)
	for name, node := range inventory.Nodes {
		if node == nil {
			node = &types.NodeInfo{}
			inventory.Nodes[name] = node
		}
		packages := map[string]types.PackageState{}
		if ref := strings.TrimSpace(node.Inventory); ref != "" {
			if !filepath.IsAbs(ref) {
				ref = filepath.Join(baseDir, ref)
			}
			loaded, err := readNodeInventory(ref)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("node", name).Str("path", ref).Msg("node inventory skipped")
			}
			for pkg, state := range loaded {
				packages[pkg] = state
			}
		}
		for pkg, state := range node.Packages {
			packages[pkg] = state
		}
		for pkg, state := range packages {
			packages[pkg] = completeFromPolicy(state)
		}
		node.Packages = packages
	}
	return inventory, nil
}

// readNodeInventory decodes the collector's JSON output. Anything printed
// before the first '{' (shell banners, warnings) is dropped.
func readNodeInventory(path string) (map[string]types.PackageState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("node inventory not found").
			WithCause(err)
	}
	start := bytes.IndexByte(data, '{')
	if start < 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("node inventory has no JSON object")
	}
	var packages map[string]types.PackageState
	if err := json.Unmarshal(data[start:], &packages); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid node inventory").
			WithCause(err)
	}
	return packages, nil
}

func completeFromPolicy(state types.PackageState) types.PackageState {
	if strings.TrimSpace(state.Raw) == "" || (state.Installed != "" && state.Candidate != "") {
		return state
	}
	installed, candidate := ParseAptPolicy(state.Raw)
	if state.Installed == "" {
		state.Installed = installed
	}
	if state.Candidate == "" {
		state.Candidate = candidate
	}
	return state
}

// ParseAptPolicy extracts the Installed and Candidate versions from
// `apt-cache policy <pkg>` output. Values are returned as printed, so a
// package that is not installed yields "(none)".
func ParseAptPolicy(raw string) (string, string) {
	var installed, candidate string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case installed == "" && strings.HasPrefix(line, "Installed:"):
			installed = strings.TrimSpace(strings.TrimPrefix(line, "Installed:"))
		case candidate == "" && strings.HasPrefix(line, "Candidate:"):
			candidate = strings.TrimSpace(strings.TrimPrefix(line, "Candidate:"))
		}
	}
	return installed, candidate
}

var _ ports.InventoryPort = InventoryFileAdapter{}
