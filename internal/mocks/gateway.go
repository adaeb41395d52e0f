package mocks

import (
	"context"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
	GatewayName string
}

func (m *MockGateway) Name() string {
	return m.GatewayName
}

func (m *MockGateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.Authorization, error) {
	args := m.Called(ctx, req)
	auth, _ := args.Get(0).(*gateway.Authorization)
	return auth, args.Error(1)
}

func (m *MockGateway) Verify(ctx context.Context, reference, gatewayReference string) (*gateway.Verification, error) {
	args := m.Called(ctx, reference, gatewayReference)
	v, _ := args.Get(0).(*gateway.Verification)
	return v, args.Error(1)
}

func (m *MockGateway) SignatureHeader() string {
	return "x-mock-signature"
}

func (m *MockGateway) VerifySignature(payload []byte, signature string) error {
	args := m.Called(payload, signature)
	return args.Error(0)
}

func (m *MockGateway) ParseEvent(payload []byte) (*gateway.Event, error) {
	args := m.Called(payload)
	event, _ := args.Get(0).(*gateway.Event)
	return event, args.Error(1)
}
