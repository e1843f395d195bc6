package tracking

import (
	"context"
	"math"

	"github.com/serroba/linktrace/internal/geo"
	"go.uber.org/zap"
)

// UpdateOutcome reports what ApplyGPSUpdate did.
type UpdateOutcome int

const (
	// OutcomeSkipped means the coordinates were missing or out of range
	// and nothing was written. The IP-based location already stored on
	// the record remains the best estimate, so this is not an error.
	OutcomeSkipped UpdateOutcome = iota
	// OutcomeApplied means latitude/longitude were written to the record.
	OutcomeApplied
)

// Recorder owns the click record lifecycle: one insert per visit at
// redirect time, and at most coordinate updates afterwards.
type Recorder struct {
	clicks   ClickRepository
	resolver geo.Resolver
	logger   *zap.Logger
}

// NewRecorder creates a new click recorder.
func NewRecorder(clicks ClickRepository, resolver geo.Resolver, logger *zap.Logger) *Recorder {
	return &Recorder{
		clicks:   clicks,
		resolver: resolver,
		logger:   logger,
	}
}

// Record resolves the visitor's IP to a coarse location and inserts the
// click record. Latitude/longitude are left nil; only a later GPS update
// fills them. A store failure is logged and nil is returned so the
// tracking page still renders.
func (r *Recorder) Record(ctx context.Context, linkID LinkID, ip, userAgent, referrer string) *ClickID {
	estimate := r.resolver.Resolve(ctx, ip)

	click := &ClickRecord{
		LinkID:    linkID,
		IPAddress: ip,
		UserAgent: userAgent,
		Referrer:  referrer,
		Country:   estimate.Country,
		City:      estimate.City,
		Region:    estimate.Region,
	}

	id, err := r.clicks.Insert(ctx, click)
	if err != nil {
		r.logger.Error("failed to store click",
			zap.Int64("link_id", int64(linkID)),
			zap.Error(err),
		)

		return nil
	}

	r.logger.Info("click recorded",
		zap.Int64("click_id", int64(id)),
		zap.Int64("link_id", int64(linkID)),
	)

	return &id
}

// ApplyGPSUpdate writes GPS coordinates to the given click record.
// Missing or out-of-range coordinates are treated as nothing-to-update
// and produce zero store mutations. On valid coordinates only the
// latitude/longitude fields change; a repeated update overwrites them
// (last write wins, no merge).
func (r *Recorder) ApplyGPSUpdate(ctx context.Context, id ClickID, lat, lng *float64) (UpdateOutcome, error) {
	if !ValidCoordinates(lat, lng) {
		r.logger.Warn("no valid GPS coordinates provided, skipping update",
			zap.Int64("click_id", int64(id)),
		)

		return OutcomeSkipped, nil
	}

	if err := r.clicks.UpdateCoordinates(ctx, id, *lat, *lng); err != nil {
		return OutcomeSkipped, err
	}

	r.logger.Info("click coordinates updated",
		zap.Int64("click_id", int64(id)),
		zap.Float64("latitude", *lat),
		zap.Float64("longitude", *lng),
	)

	return OutcomeApplied, nil
}

// ValidCoordinates reports whether both coordinates are present and
// within lat [-90,90], lng [-180,180].
func ValidCoordinates(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}

	if math.IsNaN(*lat) || math.IsNaN(*lng) {
		return false
	}

	if *lat < -90 || *lat > 90 {
		return false
	}

	if *lng < -180 || *lng > 180 {
		return false
	}

	return true
}
