package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/payvista/internal/service"
	"github.com/cradoe/payvista/internal/stream"
)

type WebhookApplier interface {
	Apply(ctx context.Context, msg service.WebhookMessage) (service.WebhookResult, error)
}

// DeadLetter is what lands on the dead-letter topic once a notification
// exhausted its attempts.
type DeadLetter struct {
	Payload  string    `json:"payload"`
	Error    string    `json:"error"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failed_at"`
}

// WebhookWorker applies queued gateway notifications. A message that fails
// is re-queued with its attempt counter raised; after maxAttempts it goes to
// the dead-letter topic for manual review.
type WebhookWorker struct {
	webhooks    WebhookApplier
	producer    stream.Producer
	maxAttempts int
	logger      *slog.Logger
}

func NewWebhookWorker(webhooks WebhookApplier, producer stream.Producer, maxAttempts int, logger *slog.Logger) *WebhookWorker {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	return &WebhookWorker{
		webhooks:    webhooks,
		producer:    producer,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

func (wk *Worker) WebhookWorker(ctx context.Context, webhooks *WebhookWorker) error {
	return wk.Consume(ctx, fundingWebhookGroupID, stream.FundingWebhookTopic, webhooks.Handle)
}

func (w *WebhookWorker) Handle(ctx context.Context, value []byte) error {
	var msg service.WebhookMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		w.logger.Error("undecodable webhook message", "error", err.Error())
		return w.deadLetter(ctx, nil, value, err, 0)
	}

	result, err := w.webhooks.Apply(ctx, msg)
	if err == nil {
		w.logger.Info("webhook message handled", "id", msg.ID, "result", string(result), "attempt", msg.Attempt)
		return nil
	}

	key := []byte(msg.Event.GatewayReference)

	if msg.Attempt >= w.maxAttempts {
		w.logger.Error("webhook message exhausted its attempts",
			"id", msg.ID,
			"gateway", msg.Event.Gateway,
			"gateway_reference", msg.Event.GatewayReference,
			"error", err.Error(),
		)
		return w.deadLetter(ctx, key, value, err, msg.Attempt)
	}

	w.logger.Warn("webhook message failed, requeueing", "id", msg.ID, "attempt", msg.Attempt, "error", err.Error())

	msg.Attempt++
	retry, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return w.producer.Produce(ctx, stream.FundingWebhookTopic, key, retry)
}

func (w *WebhookWorker) deadLetter(ctx context.Context, key, value []byte, cause error, attempts int) error {
	letter, err := json.Marshal(DeadLetter{
		Payload:  string(value),
		Error:    cause.Error(),
		Attempts: attempts,
		FailedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := w.producer.Produce(ctx, stream.FundingWebhookDeadTopic, key, letter); err != nil {
		return fmt.Errorf("dead-letter webhook: %w", err)
	}

	return nil
}
