package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	// FundingWebhookTopic carries verified gateway notifications waiting to be applied to the ledger
	FundingWebhookTopic = "funding.webhook"

	// FundingWebhookDeadTopic receives notifications that still failed after all retries
	FundingWebhookDeadTopic = "funding.webhook.dead"

	// TransactionSettledTopic is published after a transaction reaches a terminal status
	TransactionSettledTopic = "transaction.settled"
)

// Producer publishes a message and returns once the broker acknowledged it.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

type KafkaStream struct {
	kafkaServers string
	logger       *slog.Logger

	once     sync.Once
	producer *kafka.Producer
	initErr  error
}

func New(kafkaServers string, logger *slog.Logger) *KafkaStream {
	return &KafkaStream{
		kafkaServers: kafkaServers,
		logger:       logger,
	}
}

func (st *KafkaStream) getProducer() (*kafka.Producer, error) {
	st.once.Do(func() {
		st.producer, st.initErr = kafka.NewProducer(&kafka.ConfigMap{
			"bootstrap.servers":  st.kafkaServers,
			"acks":               "all",
			"enable.idempotence": true,
		})
		if st.initErr != nil {
			return
		}

		// delivery reports go to per-message channels; this drains client-level events
		go func(p *kafka.Producer) {
			for e := range p.Events() {
				if kerr, ok := e.(kafka.Error); ok {
					st.logger.Error("kafka producer error", "error", kerr.Error())
				}
			}
		}(st.producer)
	})

	return st.producer, st.initErr
}

func (st *KafkaStream) Produce(ctx context.Context, topic string, key, value []byte) error {
	producer, err := st.getProducer()
	if err != nil {
		return fmt.Errorf("create producer: %w", err)
	}

	deliveryChan := make(chan kafka.Event, 1)

	err = producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}, deliveryChan)
	if err != nil {
		st.logger.Error("failed to produce message", "topic", topic, "error", err.Error())
		return err
	}

	select {
	case e := <-deliveryChan:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("delivery to %s failed: %w", topic, msg.TopicPartition.Error)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	st.logger.Debug("message sent", "topic", topic)
	return nil
}

type StreamConsumer struct {
	GroupId string
	Topic   string
}

// CreateConsumer subscribes a consumer with manual commits; callers commit
// each message after it has been handled.
func (st *KafkaStream) CreateConsumer(consumerStruct *StreamConsumer) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  st.kafkaServers,
		"group.id":           consumerStruct.GroupId,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(consumerStruct.Topic, nil); err != nil {
		consumer.Close()
		return nil, err
	}

	return consumer, nil
}

func (st *KafkaStream) Close() {
	if st.producer != nil {
		st.producer.Flush(5000)
		st.producer.Close()
	}
}
