package mocks

import (
	"net/http"
	"sync"
)

// MockErrorHandler collects reported server errors.
type MockErrorHandler struct {
	mu   sync.Mutex
	errs []error
}

func (m *MockErrorHandler) ReportServerError(r *http.Request, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errs = append(m.errs, err)
}

func (m *MockErrorHandler) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]error(nil), m.errs...)
}
