package app

import (
	"time"

	"fleet-packages/internal/adapters"
	"fleet-packages/internal/ports"
)

type Service struct {
	Inventory       ports.InventoryPort
	Descriptions    ports.DescriptionPort
	Reports         ports.ReportPort
	Metrics         ports.MetricsPort
	RepoIndexBuild  ports.RepoIndexBuilderPort
	RepoIndexWriter ports.RepoIndexWriterPort
	OpenRepoIndex   func(path string) ports.RepoIndexPort
	Clock           func() time.Time
}

func NewService() Service {
	return Service{
		Inventory:       adapters.NewInventoryFileAdapter(),
		Descriptions:    adapters.NewDescriptionCSVAdapter(),
		Reports:         adapters.NewReportFileAdapter(),
		Metrics:         adapters.NewMetricsTextfileAdapter(),
		RepoIndexBuild:  adapters.NewRepoIndexBuilderAdapter(),
		RepoIndexWriter: adapters.NewRepoIndexWriterAdapter(),
		OpenRepoIndex: func(path string) ports.RepoIndexPort {
			return adapters.NewRepoIndexFileAdapter(path)
		},
		Clock: time.Now,
	}
}
