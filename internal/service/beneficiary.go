package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
)

type BeneficiaryService struct {
	db     repository.Database
	logger *slog.Logger
}

func NewBeneficiaryService(db repository.Database, logger *slog.Logger) *BeneficiaryService {
	return &BeneficiaryService{db: db, logger: logger}
}

func (s *BeneficiaryService) List(ctx context.Context, userID string, service models.ServiceType) ([]models.Beneficiary, error) {
	return s.db.Beneficiary().ListByUser(ctx, userID, service)
}

func (s *BeneficiaryService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.db.Beneficiary().Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBeneficiaryNotFound
	}
	return nil
}

// SaveFromPurchase records the recipient of a completed purchase. Failures
// are logged only; the purchase itself already succeeded.
func (s *BeneficiaryService) SaveFromPurchase(ctx context.Context, req PurchaseRequest, provider *models.Provider) {
	metadata := map[string]string{}
	if req.MeterType != "" {
		metadata["meter_type"] = req.MeterType
	}
	if req.Phone != "" {
		metadata["phone"] = req.Phone
	}

	encoded, err := json.Marshal(metadata)
	if err != nil {
		s.logger.Error("encode beneficiary metadata", "error", err.Error())
		return
	}

	_, err = s.db.Beneficiary().Upsert(ctx, &models.Beneficiary{
		UserID:      req.UserID,
		ProviderID:  provider.ID,
		Name:        req.BeneficiaryName,
		Identifier:  req.Recipient,
		ServiceType: req.Service,
		Metadata:    encoded,
	})
	if err != nil {
		s.logger.Error("save beneficiary", "user_id", req.UserID, "identifier", req.Recipient, "error", err.Error())
	}
}
