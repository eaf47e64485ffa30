package kafka

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

type KafkaProducer interface {
	Send(ctx context.Context, key string, value []byte) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a writer bound to a single topic. Async writers
// return as soon as the message is buffered; delivery failures are only
// logged.
func NewProducer(brokers []string, topic string, async bool) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		Async:        async,
		RequiredAcks: kafka.RequireOne,
	}
	if async {
		writer.Completion = func(messages []kafka.Message, err error) {
			if err != nil {
				for _, m := range messages {
					slog.Error("async Kafka delivery failed", "topic", m.Topic, "key", string(m.Key), "error", err)
				}
			}
		}
	}
	return &Producer{writer: writer, topic: topic}
}

func (p *Producer) Send(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("failed to send Kafka message", "topic", p.topic, "key", key, "error", err)
		return err
	}
	slog.Info("Kafka message sent", "topic", p.topic, "key", key)
	return nil
}

// Enqueue publishes a notification job; the job kind is used as message key.
func (p *Producer) Enqueue(ctx context.Context, kind string, payload []byte) error {
	return p.Send(ctx, kind, payload)
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		slog.Error("failed to close Kafka writer", "topic", p.topic, "error", err)
		return err
	}
	slog.Info("Kafka writer closed", "topic", p.topic)
	return nil
}
