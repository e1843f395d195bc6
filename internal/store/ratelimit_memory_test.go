package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/linktrace/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("counts requests in the window", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		for i := int64(1); i <= 3; i++ {
			count, err := s.Record(ctx, "client1", time.Minute)

			require.NoError(t, err)
			assert.Equal(t, i, count)
		}
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, err := s.Record(ctx, "client1", time.Minute)
		require.NoError(t, err)

		count, err := s.Record(ctx, "client2", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("expired entries are pruned", func(t *testing.T) {
		s := store.NewRateLimitMemoryStore()

		_, err := s.Record(ctx, "client1", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		count, err := s.Record(ctx, "client1", 10*time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}
