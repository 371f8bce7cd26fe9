package ports

import (
	"context"

	"fleet-packages/internal/types"
)

type InventoryPort interface {
	LoadInventory(ctx context.Context, path string) (types.FleetInventory, error)
}

type DescriptionPort interface {
	LoadDescriptions(ctx context.Context, path string) (map[string]types.PackageDescription, error)
}
