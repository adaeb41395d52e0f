package helper

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/cradoe/payvista/internal/errHandler"
)

type HelperRepository struct {
	baseUrl    string
	WG         *sync.WaitGroup
	errHandler errHandler.ErrorHandler
}

func New(baseUrl string, wg *sync.WaitGroup, errHandler errHandler.ErrorHandler) *HelperRepository {
	return &HelperRepository{
		baseUrl:    baseUrl,
		WG:         wg,
		errHandler: errHandler,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn in its own goroutine. Shutdown waits on WG, and
// panics and errors are reported instead of crashing the process.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil {
				h.errHandler.ReportServerError(r, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil {
			h.errHandler.ReportServerError(r, err)
		}
	}()
}
