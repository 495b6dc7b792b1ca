// Package events publishes TransactionCompleted events for ledger entries that
// reached COMPLETED. Entries are picked up from the ledger by a Relay, so the
// operations that complete them never wait on the broker.
package events

import (
	"context"
	"encoding/json"
	"go-ledger-api/logger"
	"go-ledger-api/model"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "transaction_completed"

type Publisher interface {
	Publish(ctx context.Context, events ...model.TransactionCompleted) error
	Close() error
}

// KafkaPublisher writes events as JSON messages keyed by transaction id.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...model.TransactionCompleted) error {
	msgs, err := encode(events)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(events []model.TransactionCompleted) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.TransactionID),
			Value: data,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}
	return msgs, nil
}

// LogPublisher only logs events. It is used when Kafka is disabled.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, events ...model.TransactionCompleted) error {
	for _, e := range events {
		logger.Log.WithField("transaction_id", e.TransactionID).
			WithField("type", e.Type).
			Debug("TransactionCompleted")
	}
	return nil
}

func (LogPublisher) Close() error { return nil }
