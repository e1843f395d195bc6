package tracking

import (
	"context"
	"time"
)

// ClickID identifies a click record. IDs are assigned by the store on insert.
type ClickID int64

// ClickRecord is one logged visit. Location fields are progressively
// refined: country/city/region come from the IP lookup at insert time,
// latitude/longitude stay nil until a GPS update arrives.
type ClickRecord struct {
	ID        ClickID
	LinkID    LinkID
	IPAddress string
	UserAgent string
	Referrer  string
	Country   *string
	City      *string
	Region    *string
	Latitude  *float64
	Longitude *float64
	ClickedAt time.Time
}

// Place is a reverse-geocoded location description.
type Place struct {
	Country *string
	City    *string
	Region  *string
}

// ClickRepository defines the store operations for click records.
type ClickRepository interface {
	// Insert stores a new click record and returns the store-assigned id.
	// ClickedAt is set by the store and never changes afterwards.
	Insert(ctx context.Context, click *ClickRecord) (ClickID, error)

	// UpdateCoordinates sets latitude/longitude on an existing record,
	// leaving every other field untouched. Returns ErrNotFound when no
	// row matches the id.
	UpdateCoordinates(ctx context.Context, id ClickID, lat, lng float64) error

	// UpdatePlace sets country/city/region from a reverse geocode.
	UpdatePlace(ctx context.Context, id ClickID, place Place) error

	// MostRecent returns the id of the newest click for a link, ordered
	// by clicked_at descending with id descending as the tie-break.
	// Returns ErrNotFound when the link has no clicks.
	MostRecent(ctx context.Context, linkID LinkID) (ClickID, error)

	// ListByLink returns all clicks for a link, newest first.
	ListByLink(ctx context.Context, linkID LinkID) ([]ClickRecord, error)
}

// LocationUpdate is the decrypted telemetry payload sent by the tracking
// page. It is consumed once by the Reconciler and never persisted as-is.
type LocationUpdate struct {
	LinkID    *int64   `json:"link_id"`
	ClickID   *int64   `json:"click_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
	Timestamp string   `json:"timestamp"`
	Slug      string   `json:"slug"`
}
