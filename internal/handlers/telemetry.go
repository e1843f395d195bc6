package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/analytics"
	"github.com/serroba/linktrace/internal/messaging"
	"github.com/serroba/linktrace/internal/payload"
	"github.com/serroba/linktrace/internal/tracking"
	"go.uber.org/zap"
)

// TelemetryHandler receives encrypted location updates from the tracking
// page and applies them to click records.
type TelemetryHandler struct {
	cipher           *payload.Cipher
	reconciler       *tracking.Reconciler
	recorder         *tracking.Recorder
	publishCorrected messaging.Publish[analytics.LocationCorrectedEvent]
	logger           *zap.Logger
}

// NewTelemetryHandler creates a new telemetry channel handler.
func NewTelemetryHandler(
	cipher *payload.Cipher,
	reconciler *tracking.Reconciler,
	recorder *tracking.Recorder,
	publishCorrected messaging.Publish[analytics.LocationCorrectedEvent],
	logger *zap.Logger,
) *TelemetryHandler {
	return &TelemetryHandler{
		cipher:           cipher,
		reconciler:       reconciler,
		recorder:         recorder,
		publishCorrected: publishCorrected,
		logger:           logger,
	}
}

// TelemetryRequest carries the raw request body. Clients send either
// {"encrypted": "<wire>"} or the wire string on its own, so the body is
// parsed by hand instead of through a schema.
type TelemetryRequest struct {
	RawBody []byte
}

// TelemetryResponse acknowledges a location update. Latitude and
// longitude echo the applied coordinates, or stay null when the update
// was skipped.
type TelemetryResponse struct {
	Body TelemetryResponseBody
}

type TelemetryResponseBody struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// ReceiveLocation decrypts the payload, resolves the target click record
// and applies the GPS coordinates. Invalid or missing coordinates are
// acknowledged without touching the record.
func (h *TelemetryHandler) ReceiveLocation(ctx context.Context, req *TelemetryRequest) (*TelemetryResponse, error) {
	wire := extractWireString(req.RawBody)
	if wire == "" {
		return nil, huma.Error400BadRequest("missing encrypted payload")
	}

	var update tracking.LocationUpdate
	if err := h.cipher.Decrypt(wire, &update); err != nil {
		h.logger.Warn("rejected undecryptable telemetry payload", zap.Error(err))

		return nil, huma.Error400BadRequest("invalid encrypted payload")
	}

	clickID, err := h.reconciler.Resolve(ctx, &update)
	if err != nil {
		switch {
		case errors.Is(err, tracking.ErrMissingLinkRef):
			return nil, huma.Error400BadRequest("payload does not reference a link")
		case errors.Is(err, tracking.ErrNotFound):
			return nil, huma.Error404NotFound("no click record found for link")
		default:
			h.logger.Error("failed to resolve click record", zap.Error(err))

			return nil, storeError(err)
		}
	}

	outcome, err := h.recorder.ApplyGPSUpdate(ctx, clickID, update.Latitude, update.Longitude)
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return nil, huma.Error404NotFound("click record not found")
		}

		h.logger.Error("failed to apply location update",
			zap.Int64("clickId", int64(clickID)),
			zap.Error(err),
		)

		return nil, storeError(err)
	}

	if outcome == tracking.OutcomeSkipped {
		return &TelemetryResponse{Body: TelemetryResponseBody{
			Success: true,
			Message: "no GPS coordinates provided - using IP-based location",
		}}, nil
	}

	event := &analytics.LocationCorrectedEvent{
		ClickID:     int64(clickID),
		Latitude:    *update.Latitude,
		Longitude:   *update.Longitude,
		Accuracy:    update.Accuracy,
		CorrectedAt: time.Now().UTC(),
	}
	if update.LinkID != nil {
		event.LinkID = *update.LinkID
	}
	if err := h.publishCorrected(event); err != nil {
		h.logger.Warn("failed to publish location corrected event",
			zap.Int64("clickId", event.ClickID),
			zap.Error(err),
		)
	}

	h.logger.Info("click location corrected",
		zap.Int64("clickId", int64(clickID)),
		zap.Float64("latitude", *update.Latitude),
		zap.Float64("longitude", *update.Longitude),
	)

	return &TelemetryResponse{Body: TelemetryResponseBody{
		Success:   true,
		Latitude:  update.Latitude,
		Longitude: update.Longitude,
	}}, nil
}

// extractWireString pulls the encrypted wire string out of the request
// body. Accepts {"encrypted": "..."}, a bare JSON string, or the raw
// string itself.
func extractWireString(body []byte) string {
	var envelope struct {
		Encrypted string `json:"encrypted"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Encrypted != "" {
		return envelope.Encrypted
	}

	var bare string
	if err := json.Unmarshal(body, &bare); err == nil && bare != "" {
		return bare
	}

	return strings.TrimSpace(string(body))
}
