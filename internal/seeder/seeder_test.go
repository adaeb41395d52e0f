package seeders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/cradoe/payvista/internal/mocks"
	"github.com/cradoe/payvista/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalogIsRepeatable(t *testing.T) {
	db := mocks.NewMemoryDatabase()
	seeder := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, seeder.Run(context.Background()))
	require.NoError(t, seeder.Run(context.Background()))

	airtime, err := db.Catalog().ListProviders(context.Background(), models.ServiceAirtime)
	require.NoError(t, err)
	assert.Len(t, airtime, 4)

	dstv, found, err := db.Catalog().FindProviderByCode(context.Background(), models.ServiceCable, "DSTV")
	require.NoError(t, err)
	require.True(t, found)

	packages, err := db.Catalog().ListPackages(context.Background(), dstv.ID)
	require.NoError(t, err)
	assert.Len(t, packages, 3)
}
