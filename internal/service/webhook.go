package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cradoe/payvista/internal/gateway"
	"github.com/cradoe/payvista/internal/models"
	"github.com/cradoe/payvista/internal/repository"
	"github.com/cradoe/payvista/internal/stream"
	"github.com/oklog/ulid/v2"
)

// DeliveryMarker remembers webhook deliveries that were already queued.
type DeliveryMarker interface {
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

const deliveryMarkerTTL = 24 * time.Hour

// WebhookMessage is the queued form of a verified notification.
type WebhookMessage struct {
	ID         string        `json:"id"`
	ReceivedAt time.Time     `json:"received_at"`
	Attempt    int           `json:"attempt"`
	Event      gateway.Event `json:"event"`
}

type WebhookResult string

const (
	WebhookQueued    WebhookResult = "queued"
	WebhookDuplicate WebhookResult = "duplicate"
	WebhookApplied   WebhookResult = "applied"
	WebhookDiscarded WebhookResult = "discarded"
)

// WebhookService receives gateway notifications on the HTTP side and applies
// them to the ledger on the worker side.
type WebhookService struct {
	db       repository.Database
	gateways *gateway.Registry
	marker   DeliveryMarker
	producer stream.Producer
	funding  *FundingService
	logger   *slog.Logger
}

func NewWebhookService(db repository.Database, gateways *gateway.Registry, marker DeliveryMarker, producer stream.Producer, funding *FundingService, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		db:       db,
		gateways: gateways,
		marker:   marker,
		producer: producer,
		funding:  funding,
		logger:   logger,
	}
}

// Receive authenticates and parses a notification and queues it for the
// reconciliation worker. It returns once the message is durably queued.
// No transaction is looked up and no balance is touched here.
func (s *WebhookService) Receive(ctx context.Context, gatewayName string, payload []byte, signature string) (WebhookResult, error) {
	gw, ok := s.gateways.Get(gatewayName)
	if !ok {
		return "", ErrUnsupportedGateway
	}

	if err := gw.VerifySignature(payload, signature); err != nil {
		s.logger.Warn("webhook signature rejected", "gateway", gatewayName)
		return "", ErrSignatureInvalid
	}

	event, err := gw.ParseEvent(payload)
	if err != nil {
		s.logger.Warn("malformed webhook", "gateway", gatewayName, "error", err.Error())
		return "", err
	}

	if !event.ChargeSucceeded {
		s.logger.Info("webhook event not relevant", "gateway", gatewayName, "event", event.Type)
		return WebhookDiscarded, nil
	}

	sum := sha256.Sum256(payload)
	markerKey := "webhook:" + gatewayName + ":" + hex.EncodeToString(sum[:])

	if s.marker != nil {
		fresh, err := s.marker.SetNX(ctx, markerKey, event.GatewayReference, deliveryMarkerTTL)
		if err != nil {
			// the ledger is idempotent, so a redis outage only costs a redundant message
			s.logger.Warn("webhook marker unavailable", "error", err.Error())
		} else if !fresh {
			return WebhookDuplicate, nil
		}
	}

	message, err := json.Marshal(WebhookMessage{
		ID:         ulid.Make().String(),
		ReceivedAt: time.Now().UTC(),
		Attempt:    1,
		Event:      *event,
	})
	if err != nil {
		return "", err
	}

	if err := s.producer.Produce(ctx, stream.FundingWebhookTopic, []byte(event.GatewayReference), message); err != nil {
		if s.marker != nil {
			if delErr := s.marker.Delete(context.WithoutCancel(ctx), markerKey); delErr != nil {
				s.logger.Warn("release webhook marker", "error", delErr.Error())
			}
		}
		return "", fmt.Errorf("queue webhook: %w", err)
	}

	return WebhookQueued, nil
}

// Apply reconciles one queued notification. Unknown references and already
// settled transactions are discarded; redelivery is therefore harmless.
func (s *WebhookService) Apply(ctx context.Context, msg WebhookMessage) (WebhookResult, error) {
	event := msg.Event

	if !event.ChargeSucceeded || event.GatewayReference == "" {
		return WebhookDiscarded, nil
	}

	tx, found, err := s.db.Transaction().FindByGatewayReference(ctx, event.GatewayReference)
	if err != nil {
		return "", err
	}

	if !found || tx.Type != models.TransactionTypeWalletFunding {
		s.logger.Info("webhook reference not found", "gateway", event.Gateway, "gateway_reference", event.GatewayReference)
		return WebhookDiscarded, nil
	}

	if tx.Status.IsTerminal() {
		s.logger.Info("webhook for settled transaction", "reference", tx.Reference, "status", tx.Status)
		return WebhookDiscarded, nil
	}

	if event.Amount.IsPositive() && event.Amount.LessThan(tx.Amount) {
		s.logger.Warn("webhook amount below transaction amount",
			"reference", tx.Reference,
			"requested", tx.Amount.String(),
			"settled", event.Amount.String(),
		)
		if _, err := s.funding.fail(ctx, tx, models.FailureReasonAmountMismatch, event.Raw); err != nil {
			return "", err
		}
		return WebhookApplied, nil
	}

	completed, err := s.funding.CompleteFunding(ctx, tx.ID, event.Raw)
	if err != nil {
		return "", err
	}

	s.logger.Info("processed webhook", "gateway", event.Gateway, "reference", completed.Reference)
	return WebhookApplied, nil
}
