package seeders

import (
	"context"
	"log/slog"
	"time"

	"github.com/cradoe/payvista/internal/repository"
)

const defaultTimeout = 30 * time.Second

type Seeder struct {
	DB     repository.Database
	logger *slog.Logger
}

func New(DB repository.Database, logger *slog.Logger) *Seeder {
	return &Seeder{
		DB:     DB,
		logger: logger,
	}
}

func (seeder *Seeder) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return seeder.seedCatalog(ctx)
}
