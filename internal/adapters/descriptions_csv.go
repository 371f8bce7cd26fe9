package adapters

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/types"
)

// Column layout of the description CSV. Columns after os_release hold
// per-tag versions and are not used by the audit.
const (
	descColumnPackage = iota
	descColumnComponent
	descColumnApp
	descColumnRepo
	descColumnOSRelease
)

type DescriptionCSVAdapter struct{}

func NewDescriptionCSVAdapter() DescriptionCSVAdapter {
	return DescriptionCSVAdapter{}
}

// LoadDescriptions reads package_name,component,application_or_service,
// repo,openstack_release,... rows. A package may appear once per OS
// release; the first row's description is kept.
func (a DescriptionCSVAdapter) LoadDescriptions(ctx context.Context, path string) (map[string]types.PackageDescription, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("descriptions file not found").
			WithCause(err)
	}
	defer file.Close()
	return parseDescriptions(ctx, file)
}

func parseDescriptions(ctx context.Context, reader io.Reader) (map[string]types.PackageDescription, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true
	out := map[string]types.PackageDescription{}
	seen := map[string]struct{}{}
	line := 0
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid descriptions file").
				WithCause(err)
		}
		line++
		if line == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "package_name") {
			continue
		}
		if len(row) <= descColumnRepo || strings.TrimSpace(row[descColumnPackage]) == "" {
			log.Ctx(ctx).Warn().Int("line", line).Msg("short description row skipped")
			continue
		}
		name := strings.TrimSpace(row[descColumnPackage])
		osRelease := ""
		if len(row) > descColumnOSRelease {
			osRelease = strings.TrimSpace(row[descColumnOSRelease])
		}
		key := name + "|" + osRelease
		if _, ok := seen[key]; ok {
			log.Ctx(ctx).Warn().
				Str("package", name).
				Str("os_release", osRelease).
				Int("line", line).
				Msg("duplicate package description")
			continue
		}
		seen[key] = struct{}{}
		if _, ok := out[name]; ok {
			continue
		}
		desc := types.PackageDescription{
			Section: strings.TrimSpace(row[descColumnComponent]),
			App:     strings.TrimSpace(row[descColumnApp]),
			Repo:    strings.TrimSpace(row[descColumnRepo]),
		}
		if desc.Repo == "" {
			desc.Repo = types.DefaultDescriptionRepo
		}
		out[name] = desc
	}
	return out, nil
}

var _ ports.DescriptionPort = DescriptionCSVAdapter{}
