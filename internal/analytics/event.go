package analytics

import "time"

// Topic names for the click event stream.
const (
	TopicClickRecorded     = "click.recorded"
	TopicLocationCorrected = "click.location_corrected"
)

// ClickRecordedEvent is emitted after a click record is inserted on the
// redirect path. ClickID is zero when the insert failed and the page was
// served anyway.
type ClickRecordedEvent struct {
	ClickID   int64     `json:"clickId,omitempty"`
	LinkID    int64     `json:"linkId"`
	Slug      string    `json:"slug"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer,omitempty"`
	Country   *string   `json:"country,omitempty"`
	City      *string   `json:"city,omitempty"`
	Region    *string   `json:"region,omitempty"`
	ClickedAt time.Time `json:"clickedAt"`
}

// LocationCorrectedEvent is emitted after GPS coordinates were applied to
// a click record. The enricher consumes it to reverse-geocode the
// coordinates into country/city/region, best-effort.
type LocationCorrectedEvent struct {
	ClickID     int64     `json:"clickId"`
	LinkID      int64     `json:"linkId,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Accuracy    *float64  `json:"accuracy,omitempty"`
	CorrectedAt time.Time `json:"correctedAt"`
}
