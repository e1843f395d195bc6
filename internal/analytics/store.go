package analytics

import "context"

// Store defines the interface for sinking click events.
type Store interface {
	SaveClickRecorded(ctx context.Context, event *ClickRecordedEvent) error
	SaveLocationCorrected(ctx context.Context, event *LocationCorrectedEvent) error
}
