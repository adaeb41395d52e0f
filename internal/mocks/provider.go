package mocks

import (
	"context"

	"github.com/cradoe/payvista/internal/vtu"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) PurchaseAirtime(ctx context.Context, providerCode, phone string, amount decimal.Decimal, reference string) vtu.Outcome {
	args := m.Called(ctx, providerCode, phone, amount, reference)
	return args.Get(0).(vtu.Outcome)
}

func (m *MockProvider) PurchaseData(ctx context.Context, providerCode, phone, packageCode, reference string) vtu.Outcome {
	args := m.Called(ctx, providerCode, phone, packageCode, reference)
	return args.Get(0).(vtu.Outcome)
}

func (m *MockProvider) VerifyMeter(ctx context.Context, providerCode, meterNumber, meterType string) vtu.Outcome {
	args := m.Called(ctx, providerCode, meterNumber, meterType)
	return args.Get(0).(vtu.Outcome)
}

func (m *MockProvider) PayElectricity(ctx context.Context, providerCode, meterNumber, meterType string, amount decimal.Decimal, phone, reference string) vtu.Outcome {
	args := m.Called(ctx, providerCode, meterNumber, meterType, amount, phone, reference)
	return args.Get(0).(vtu.Outcome)
}

func (m *MockProvider) VerifySmartCard(ctx context.Context, providerCode, smartCardNumber string) vtu.Outcome {
	args := m.Called(ctx, providerCode, smartCardNumber)
	return args.Get(0).(vtu.Outcome)
}

func (m *MockProvider) SubscribeCable(ctx context.Context, providerCode, smartCardNumber, packageCode, phone, reference string) vtu.Outcome {
	args := m.Called(ctx, providerCode, smartCardNumber, packageCode, phone, reference)
	return args.Get(0).(vtu.Outcome)
}

func (m *MockProvider) QueryTransaction(ctx context.Context, reference string) (vtu.DeliveryStatus, vtu.Outcome) {
	args := m.Called(ctx, reference)
	return args.Get(0).(vtu.DeliveryStatus), args.Get(1).(vtu.Outcome)
}
