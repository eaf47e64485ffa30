package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	messages  chan kafka.Message
	committed []int64
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &fakeReader{messages: ch}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type handlerFunc func(ctx context.Context, payload []byte) error

func (f handlerFunc) Handle(ctx context.Context, payload []byte) error { return f(ctx, payload) }

type recordingProducer struct {
	mu       sync.Mutex
	sent     [][]byte
	calls    int
	failures int
}

// Send fails the first p.failures calls.
func (p *recordingProducer) Send(_ context.Context, _ string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker down")
	}
	p.sent = append(p.sent, value)
	return nil
}

func (p *recordingProducer) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) Sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.sent...)
}

func TestConsumer_Consume(t *testing.T) {
	t.Run("CommitsAfterSuccess", func(t *testing.T) {
		reader := newFakeReader(kafka.Message{Offset: 1, Value: []byte("a")}, kafka.Message{Offset: 2, Value: []byte("b")})
		var mu sync.Mutex
		var handled []string
		handler := handlerFunc(func(_ context.Context, payload []byte) error {
			mu.Lock()
			defer mu.Unlock()
			handled = append(handled, string(payload))
			return nil
		})
		consumer := newConsumer(reader, handler, nil, 3, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			consumer.Consume(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool { return len(reader.Committed()) == 2 }, time.Second, 5*time.Millisecond)
		cancel()
		<-done

		assert.Equal(t, []int64{1, 2}, reader.Committed())
		assert.Equal(t, []string{"a", "b"}, handled)
	})

	t.Run("RetriesThenSucceeds", func(t *testing.T) {
		reader := newFakeReader(kafka.Message{Offset: 7, Value: []byte("job")})
		var mu sync.Mutex
		calls := 0
		handler := handlerFunc(func(context.Context, []byte) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls < 3 {
				return errors.New("smtp unavailable")
			}
			return nil
		})
		dlq := &recordingProducer{}
		consumer := newConsumer(reader, handler, dlq, 5, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go consumer.Consume(ctx)

		require.Eventually(t, func() bool { return len(reader.Committed()) == 1 }, time.Second, 5*time.Millisecond)
		mu.Lock()
		assert.Equal(t, 3, calls)
		mu.Unlock()
		assert.Empty(t, dlq.Sent())
	})

	t.Run("DeadLettersAfterMaxAttempts", func(t *testing.T) {
		reader := newFakeReader(kafka.Message{Offset: 9, Key: []byte("payment_confirmation"), Value: []byte("job")})
		handler := handlerFunc(func(context.Context, []byte) error { return errors.New("boom") })
		dlq := &recordingProducer{}
		consumer := newConsumer(reader, handler, dlq, 2, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go consumer.Consume(ctx)

		require.Eventually(t, func() bool { return len(reader.Committed()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, [][]byte{[]byte("job")}, dlq.Sent())
	})

	t.Run("NoCommitWhenCanceledMidRetry", func(t *testing.T) {
		reader := newFakeReader(kafka.Message{Offset: 3, Value: []byte("job")})
		attempted := make(chan struct{}, 1)
		handler := handlerFunc(func(context.Context, []byte) error {
			select {
			case attempted <- struct{}{}:
			default:
			}
			return errors.New("boom")
		})
		consumer := newConsumer(reader, handler, nil, 10, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			consumer.Consume(ctx)
			close(done)
		}()

		<-attempted
		cancel()
		<-done
		assert.Empty(t, reader.Committed())
	})

	t.Run("DeadLetterFailureRetriedBeforeCommit", func(t *testing.T) {
		reader := newFakeReader(kafka.Message{Offset: 11, Value: []byte("job")})
		handler := handlerFunc(func(context.Context, []byte) error { return errors.New("boom") })
		dlq := &recordingProducer{failures: 2}
		consumer := newConsumer(reader, handler, dlq, 2, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go consumer.Consume(ctx)

		require.Eventually(t, func() bool { return len(reader.Committed()) == 1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, 3, dlq.Calls())
		assert.Equal(t, [][]byte{[]byte("job")}, dlq.Sent())
		assert.Equal(t, []int64{11}, reader.Committed())
	})

	t.Run("NoCommitWhileDeadLetterUnavailable", func(t *testing.T) {
		reader := newFakeReader(kafka.Message{Offset: 12, Value: []byte("job")})
		handler := handlerFunc(func(context.Context, []byte) error { return errors.New("boom") })
		dlq := &recordingProducer{failures: 1 << 30}
		consumer := newConsumer(reader, handler, dlq, 2, time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			consumer.Consume(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool { return dlq.Calls() >= 3 }, time.Second, 5*time.Millisecond)
		cancel()
		<-done
		assert.Empty(t, reader.Committed())
		assert.Empty(t, dlq.Sent())
	})
}
