package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/serroba/linktrace/internal/analytics"
	"github.com/serroba/linktrace/internal/analytics/store"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNoop(t *testing.T) {
	sink := store.NewNoop(zap.NewNop())
	ctx := context.Background()

	assert.NoError(t, sink.SaveClickRecorded(ctx, &analytics.ClickRecordedEvent{
		ClickID:   1,
		LinkID:    1,
		Slug:      "morning-x1",
		ClickedAt: time.Now(),
	}))

	assert.NoError(t, sink.SaveLocationCorrected(ctx, &analytics.LocationCorrectedEvent{
		ClickID:   1,
		Latitude:  40.7,
		Longitude: -74.0,
	}))
}
