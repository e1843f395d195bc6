package messaging_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/linktrace/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	ClickID int64  `json:"clickId"`
	Slug    string `json:"slug"`
}

type mockPublisher struct {
	mu         sync.Mutex
	published  map[string][]*message.Message
	publishErr error
	closed     bool
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{
		published: make(map[string][]*message.Message),
	}
}

func (m *mockPublisher) Publish(topic string, messages ...*message.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishErr != nil {
		return m.publishErr
	}

	m.published[topic] = append(m.published[topic], messages...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}

func TestPublishFunc(t *testing.T) {
	t.Run("publishes the event as JSON", func(t *testing.T) {
		pub := newMockPublisher()
		publish := messaging.NewPublishFunc[testEvent](pub, "click.recorded")

		err := publish(&testEvent{ClickID: 7, Slug: "morning-x1"})

		require.NoError(t, err)
		require.Len(t, pub.published["click.recorded"], 1)

		var got testEvent
		require.NoError(t, json.Unmarshal(pub.published["click.recorded"][0].Payload, &got))
		assert.Equal(t, int64(7), got.ClickID)
		assert.Equal(t, "morning-x1", got.Slug)
	})

	t.Run("assigns a unique message id", func(t *testing.T) {
		pub := newMockPublisher()
		publish := messaging.NewPublishFunc[testEvent](pub, "click.recorded")

		require.NoError(t, publish(&testEvent{ClickID: 1}))
		require.NoError(t, publish(&testEvent{ClickID: 2}))

		msgs := pub.published["click.recorded"]
		require.Len(t, msgs, 2)
		assert.NotEqual(t, msgs[0].UUID, msgs[1].UUID)
	})

	t.Run("propagates publish errors", func(t *testing.T) {
		pub := newMockPublisher()
		pub.publishErr = errors.New("broker down")
		publish := messaging.NewPublishFunc[testEvent](pub, "click.recorded")

		assert.Error(t, publish(&testEvent{ClickID: 1}))
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("exposes the underlying publisher", func(t *testing.T) {
		pub := newMockPublisher()
		group := messaging.NewPublisherGroup(pub)

		assert.Equal(t, pub, group.Publisher())
	})

	t.Run("shutdown closes the publisher", func(t *testing.T) {
		pub := newMockPublisher()
		group := messaging.NewPublisherGroup(pub)

		require.NoError(t, group.Shutdown())
		assert.True(t, pub.closed)
	})
}
