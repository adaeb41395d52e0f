package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Produce(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// MockNotifier records every settled transaction it is told about.
type MockNotifier struct {
	mu      sync.Mutex
	settled []models.Transaction
}

func (m *MockNotifier) TransactionSettled(ctx context.Context, tx *models.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settled = append(m.settled, *tx)
}

func (m *MockNotifier) Settled() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]models.Transaction(nil), m.settled...)
}

// MockMarker is an in-memory SetNX store.
type MockMarker struct {
	mu   sync.Mutex
	keys map[string]string
	Err  error
}

func (m *MockMarker) SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	if m.keys == nil {
		m.keys = map[string]string{}
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = value
	return true, nil
}

func (m *MockMarker) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.keys, key)
	return nil
}

func (m *MockMarker) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.keys)
}
