package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/cradoe/payvista/internal/stream"
)

const (
	// fundingWebhookGroupID consumes verified gateway notifications and applies them to the ledger
	fundingWebhookGroupID = "funding-webhook-group"

	// settlementNotificationGroupID emails users when their transactions settle
	settlementNotificationGroupID = "settlement-notification-group"

	pollTimeoutMs = 100
	retryBackoff  = time.Second
)

// Handler processes one message value. A returned error means the message
// could not be handled yet and is tried again.
type Handler func(ctx context.Context, value []byte) error

type Worker struct {
	KafkaStream *stream.KafkaStream
	Logger      *slog.Logger
}

// Our workers typically need the kafka event stream and a logger;
// worker-specific dependencies are passed to the worker types themselves
func New(kafkaStream *stream.KafkaStream, logger *slog.Logger) *Worker {
	return &Worker{
		KafkaStream: kafkaStream,
		Logger:      logger,
	}
}

// Consume polls topic until ctx is cancelled. Offsets are committed only
// after handle succeeded, so a crash replays the message.
func (wk *Worker) Consume(ctx context.Context, groupID, topic string, handle Handler) error {
	consumer, err := wk.KafkaStream.CreateConsumer(&stream.StreamConsumer{
		GroupId: groupID,
		Topic:   topic,
	})
	if err != nil {
		return err
	}
	defer consumer.Close()

	wk.Logger.Info("worker started", "group", groupID, "topic", topic)

	for {
		select {
		case <-ctx.Done():
			wk.Logger.Info("worker received cancellation signal, shutting down", "group", groupID)
			return nil
		default:
			event := consumer.Poll(pollTimeoutMs)
			switch e := event.(type) {
			case *kafka.Message:
				if !wk.handleUntilDone(ctx, groupID, e, handle) {
					return nil
				}

				if _, err := consumer.CommitMessage(e); err != nil {
					wk.Logger.Error("commit offset", "group", groupID, "error", err.Error())
				}
			case kafka.Error:
				wk.Logger.Error("kafka consumer error", "group", groupID, "error", e.Error())
			case kafka.AssignedPartitions:
				consumer.Assign(e.Partitions)
			case kafka.RevokedPartitions:
				consumer.Unassign()
			}
		}
	}
}

// handleUntilDone retries handle with a fixed backoff. It returns false when
// ctx ended before the message was handled.
func (wk *Worker) handleUntilDone(ctx context.Context, groupID string, msg *kafka.Message, handle Handler) bool {
	for {
		err := handle(ctx, msg.Value)
		if err == nil {
			return true
		}

		wk.Logger.Error("message handling failed",
			"group", groupID,
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset.String(),
			"error", err.Error(),
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(retryBackoff):
		}
	}
}
