package store

import (
	"context"

	"github.com/serroba/linktrace/internal/analytics"
	"go.uber.org/zap"
)

// Noop is a no-op implementation of analytics.Store that logs events.
type Noop struct {
	logger *zap.Logger
}

// NewNoop creates a new no-op analytics store.
func NewNoop(logger *zap.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SaveClickRecorded(_ context.Context, event *analytics.ClickRecordedEvent) error {
	n.logger.Info("click recorded event received",
		zap.Int64("clickId", event.ClickID),
		zap.Int64("linkId", event.LinkID),
		zap.String("slug", event.Slug),
		zap.String("referrer", event.Referrer),
		zap.Time("clickedAt", event.ClickedAt),
	)

	return nil
}

func (n *Noop) SaveLocationCorrected(_ context.Context, event *analytics.LocationCorrectedEvent) error {
	n.logger.Info("location corrected event received",
		zap.Int64("clickId", event.ClickID),
		zap.Float64("latitude", event.Latitude),
		zap.Float64("longitude", event.Longitude),
	)

	return nil
}
