package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/serroba/linktrace/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func (m *mockSubscriber) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

func newMessage(t *testing.T, event testEvent) *message.Message {
	t.Helper()

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return message.NewMessage(uuid.NewString(), payload)
}

func waitAcked(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Fatal("message was not acked in time")
	}
}

func waitNacked(t *testing.T, msg *message.Message) {
	t.Helper()

	select {
	case <-msg.Nacked():
	case <-time.After(time.Second):
		t.Fatal("message was not nacked in time")
	}
}

func TestConsumerStart(t *testing.T) {
	t.Run("starts and reports its topic", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"click.recorded",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		err := consumer.Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "click.recorded", consumer.Topic())

		_ = consumer.Shutdown()
	})

	t.Run("subscribe failure surfaces", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(
			sub,
			"click.recorded",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		assert.Error(t, consumer.Start(context.Background()))
	})
}

func TestConsumerHandleMessage(t *testing.T) {
	t.Run("acks on successful handling", func(t *testing.T) {
		sub := newMockSubscriber()

		var (
			mu       sync.Mutex
			received *testEvent
		)

		consumer := messaging.NewConsumer(
			sub,
			"click.recorded",
			func(_ context.Context, event *testEvent) error {
				mu.Lock()
				received = event
				mu.Unlock()

				return nil
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		msg := newMessage(t, testEvent{ClickID: 7, Slug: "morning-x1"})
		sub.msgChan <- msg

		waitAcked(t, msg)

		mu.Lock()
		defer mu.Unlock()
		require.NotNil(t, received)
		assert.Equal(t, int64(7), received.ClickID)
	})

	t.Run("nacks on handler failure", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"click.recorded",
			func(_ context.Context, _ *testEvent) error { return errors.New("handler failure") },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		msg := newMessage(t, testEvent{ClickID: 7})
		sub.msgChan <- msg

		waitNacked(t, msg)
	})

	t.Run("nacks a malformed payload", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"click.recorded",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		defer func() { _ = consumer.Shutdown() }()

		msg := message.NewMessage(uuid.NewString(), []byte("not json"))
		sub.msgChan <- msg

		waitNacked(t, msg)
	})
}

func TestConsumerShutdown(t *testing.T) {
	t.Run("shutdown waits for the consume loop", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"click.recorded",
			func(_ context.Context, _ *testEvent) error { return nil },
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))
		assert.NoError(t, consumer.Shutdown())
	})
}
