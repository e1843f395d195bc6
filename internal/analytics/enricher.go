package analytics

import (
	"context"

	"github.com/serroba/linktrace/internal/geo"
	"github.com/serroba/linktrace/internal/tracking"
	"go.uber.org/zap"
)

// Enricher reverse-geocodes corrected coordinates into a place
// description and writes it back to the click record. The whole chain is
// best-effort: geocode or store failures are logged and the event is
// acked, matching the single-attempt semantics of the source system. A
// failed enrichment leaves the IP-derived place on the record.
type Enricher struct {
	geocoder geo.ReverseGeocoder
	clicks   tracking.ClickRepository
	logger   *zap.Logger
}

// NewEnricher creates a new location enricher.
func NewEnricher(geocoder geo.ReverseGeocoder, clicks tracking.ClickRepository, logger *zap.Logger) *Enricher {
	return &Enricher{
		geocoder: geocoder,
		clicks:   clicks,
		logger:   logger,
	}
}

// HandleLocationCorrected is the messaging.Handler for
// TopicLocationCorrected. It always returns nil.
func (e *Enricher) HandleLocationCorrected(ctx context.Context, event *LocationCorrectedEvent) error {
	place, err := e.geocoder.ReverseGeocode(ctx, event.Latitude, event.Longitude)
	if err != nil {
		e.logger.Warn("reverse geocoding failed",
			zap.Int64("clickId", event.ClickID),
			zap.Error(err),
		)

		return nil
	}

	update := tracking.Place{
		Country: place.Country,
		City:    place.City,
		Region:  place.Region,
	}

	if err := e.clicks.UpdatePlace(ctx, tracking.ClickID(event.ClickID), update); err != nil {
		e.logger.Warn("failed to store geocoded place",
			zap.Int64("clickId", event.ClickID),
			zap.Error(err),
		)

		return nil
	}

	e.logger.Info("click place enriched from coordinates",
		zap.Int64("clickId", event.ClickID),
		zap.Stringp("country", place.Country),
		zap.Stringp("city", place.City),
	)

	return nil
}
