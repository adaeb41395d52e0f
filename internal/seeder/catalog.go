package seeders

import (
	"context"
	"fmt"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/shopspring/decimal"
)

type seedPackage struct {
	code     string
	name     string
	price    string
	validity string
}

type seedProvider struct {
	service  models.ServiceType
	code     string
	name     string
	packages []seedPackage
}

var catalog = []seedProvider{
	{service: models.ServiceAirtime, code: "MTN", name: "MTN"},
	{service: models.ServiceAirtime, code: "GLO", name: "Glo"},
	{service: models.ServiceAirtime, code: "AIRTEL", name: "Airtel"},
	{service: models.ServiceAirtime, code: "9MOBILE", name: "9mobile"},
	{
		service: models.ServiceData, code: "MTN", name: "MTN Data",
		packages: []seedPackage{
			{"MTN-500MB", "500MB (SME)", "150", "30 days"},
			{"MTN-1GB", "1GB (SME)", "300", "30 days"},
			{"MTN-5GB", "5GB (SME)", "1500", "30 days"},
		},
	},
	{
		service: models.ServiceData, code: "GLO", name: "Glo Data",
		packages: []seedPackage{
			{"GLO-1GB", "1GB", "270", "30 days"},
			{"GLO-5GB", "5GB", "1350", "30 days"},
		},
	},
	{
		service: models.ServiceData, code: "AIRTEL", name: "Airtel Data",
		packages: []seedPackage{
			{"AIRTEL-1GB", "1GB", "290", "30 days"},
			{"AIRTEL-10GB", "10GB", "2900", "30 days"},
		},
	},
	{service: models.ServiceElectricity, code: "IKEDC", name: "Ikeja Electric"},
	{service: models.ServiceElectricity, code: "EKEDC", name: "Eko Electric"},
	{service: models.ServiceElectricity, code: "AEDC", name: "Abuja Electric"},
	{
		service: models.ServiceCable, code: "DSTV", name: "DStv",
		packages: []seedPackage{
			{"DSTV-PADI", "DStv Padi", "2950", "1 month"},
			{"DSTV-COMPACT", "DStv Compact", "12500", "1 month"},
			{"DSTV-PREMIUM", "DStv Premium", "37000", "1 month"},
		},
	},
	{
		service: models.ServiceCable, code: "GOTV", name: "GOtv",
		packages: []seedPackage{
			{"GOTV-JINJA", "GOtv Jinja", "3900", "1 month"},
			{"GOTV-MAX", "GOtv Max", "8500", "1 month"},
		},
	},
	{
		service: models.ServiceCable, code: "STARTIMES", name: "StarTimes",
		packages: []seedPackage{
			{"STARTIMES-BASIC", "Basic", "4000", "1 month"},
		},
	},
}

// seedCatalog upserts providers and packages; running it again is harmless.
func (seeder *Seeder) seedCatalog(ctx context.Context) error {
	return seeder.DB.WithinTx(ctx, func(db repository.Database) error {
		for _, p := range catalog {
			providerID, err := db.Catalog().InsertProvider(ctx, &models.Provider{
				Name:        p.name,
				Code:        p.code,
				ServiceType: p.service,
				IsActive:    true,
			})
			if err != nil {
				return fmt.Errorf("seed provider %s/%s: %w", p.service, p.code, err)
			}

			for _, pkg := range p.packages {
				price, err := decimal.NewFromString(pkg.price)
				if err != nil {
					return err
				}

				_, err = db.Catalog().InsertPackage(ctx, &models.ServicePackage{
					ProviderID: providerID,
					Name:       pkg.name,
					Code:       pkg.code,
					Price:      price,
					Validity:   pkg.validity,
					IsActive:   true,
				})
				if err != nil {
					return fmt.Errorf("seed package %s: %w", pkg.code, err)
				}
			}
		}

		seeder.logger.Info("catalog seeded", "providers", len(catalog))
		return nil
	})
}
