package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultBackoff = time.Second

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MessageHandler processes a single message payload. A returned error
// makes the consumer retry the message.
type MessageHandler interface {
	Handle(ctx context.Context, payload []byte) error
}

// Consumer delivers messages at least once: offsets are committed only
// after the handler succeeded or the message was moved to the
// dead-letter topic.
type Consumer struct {
	reader      MessageReader
	handler     MessageHandler
	deadLetter  KafkaProducer
	maxAttempts int
	backoff     time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, handler MessageHandler, deadLetter KafkaProducer, maxAttempts int) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, handler, deadLetter, maxAttempts, defaultBackoff)
}

func newConsumer(reader MessageReader, handler MessageHandler, deadLetter KafkaProducer, maxAttempts int, backoff time.Duration) *Consumer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Consumer{
		reader:      reader,
		handler:     handler,
		deadLetter:  deadLetter,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Consume runs until ctx is canceled.
func (c *Consumer) Consume(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Kafka consumer stopped")
				return
			}
			slog.Error("failed to fetch Kafka message", "error", err)
			continue
		}

		slog.Info("Kafka message received", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))

		if !c.process(ctx, msg) {
			// shutting down mid-retry: leave the offset uncommitted so the
			// message is redelivered
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			slog.Error("failed to commit Kafka message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		}
	}
}

// process reports false when ctx was canceled before the message was
// settled.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	for attempt := 1; ; attempt++ {
		err := c.handler.Handle(ctx, msg.Value)
		if err == nil {
			return true
		}

		slog.Error("failed to handle Kafka message", "topic", msg.Topic, "offset", msg.Offset, "attempt", attempt, "error", err)
		if attempt >= c.maxAttempts {
			return c.deadLetterWithRetry(ctx, msg)
		}

		if !c.wait(ctx, attempt) {
			return false
		}
	}
}

// deadLetterWithRetry keeps publishing until the dead-letter topic accepts
// the message; the offset must not be committed before that.
func (c *Consumer) deadLetterWithRetry(ctx context.Context, msg kafka.Message) bool {
	for attempt := 1; ; attempt++ {
		err := c.sendToDeadLetter(ctx, msg)
		if err == nil {
			return true
		}
		slog.Error("failed to send message to dead-letter topic", "topic", msg.Topic, "offset", msg.Offset, "attempt", attempt, "error", err)
		if !c.wait(ctx, attempt) {
			return false
		}
	}
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg kafka.Message) error {
	if c.deadLetter == nil {
		slog.Error("dropping Kafka message after retries, no dead-letter topic configured", "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}
	if err := c.deadLetter.Send(ctx, string(msg.Key), msg.Value); err != nil {
		return err
	}
	slog.Warn("message moved to dead-letter topic", "topic", msg.Topic, "offset", msg.Offset)
	return nil
}

// wait applies the linear backoff and reports false when ctx was canceled.
func (c *Consumer) wait(ctx context.Context, attempt int) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.backoff * time.Duration(attempt)):
		return true
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
