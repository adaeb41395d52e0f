package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/stream"
	"github.com/shopspring/decimal"
)

// Notifier is told about transactions that reached a terminal status. It is
// only called after the unit of work that settled them has committed.
type Notifier interface {
	TransactionSettled(ctx context.Context, tx *models.Transaction)
}

type SettlementEvent struct {
	TransactionID string                   `json:"transaction_id"`
	UserID        string                   `json:"user_id"`
	Reference     string                   `json:"reference"`
	Type          models.TransactionType   `json:"type"`
	Status        models.TransactionStatus `json:"status"`
	Amount        decimal.Decimal          `json:"amount"`
	Provider      string                   `json:"provider"`
	Recipient     string                   `json:"recipient"`
	FailureReason string                   `json:"failure_reason,omitempty"`
	SettledAt     time.Time                `json:"settled_at"`
}

func NewSettlementEvent(tx *models.Transaction) SettlementEvent {
	settledAt := time.Now()
	if tx.CompletedAt.Valid {
		settledAt = tx.CompletedAt.Time
	} else if tx.UpdatedAt.Valid {
		settledAt = tx.UpdatedAt.Time
	}

	return SettlementEvent{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		Reference:     tx.Reference,
		Type:          tx.Type,
		Status:        tx.Status,
		Amount:        tx.Amount,
		Provider:      tx.Provider,
		Recipient:     tx.Recipient,
		FailureReason: tx.FailureReason,
		SettledAt:     settledAt,
	}
}

// StreamNotifier publishes settlement events to kafka in the background.
type StreamNotifier struct {
	producer stream.Producer
	logger   *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewStreamNotifier(producer stream.Producer, logger *slog.Logger) *StreamNotifier {
	return &StreamNotifier{
		producer: producer,
		logger:   logger,
		timeout:  10 * time.Second,
	}
}

func (n *StreamNotifier) TransactionSettled(ctx context.Context, tx *models.Transaction) {
	payload, err := json.Marshal(NewSettlementEvent(tx))
	if err != nil {
		n.logger.Error("encode settlement event", "reference", tx.Reference, "error", err.Error())
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
		defer cancel()

		if err := n.producer.Produce(ctx, stream.TransactionSettledTopic, []byte(tx.UserID), payload); err != nil {
			n.logger.Error("publish settlement event", "reference", tx.Reference, "error", err.Error())
		}
	}()
}

// Wait blocks until in-flight publications are done.
func (n *StreamNotifier) Wait() {
	n.wg.Wait()
}
