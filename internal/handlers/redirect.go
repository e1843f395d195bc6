package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/analytics"
	"github.com/serroba/linktrace/internal/messaging"
	"github.com/serroba/linktrace/internal/payload"
	"github.com/serroba/linktrace/internal/tracking"
	"go.uber.org/zap"
)

// RedirectHandler serves the tracking page for short links. Despite the
// name there is no HTTP redirect: the page itself is the destination,
// and the click record is created as a side effect of serving it.
type RedirectHandler struct {
	links        tracking.LinkRepository
	recorder     *tracking.Recorder
	cipher       *payload.Cipher
	publishClick messaging.Publish[analytics.ClickRecordedEvent]
	logger       *zap.Logger
}

// NewRedirectHandler creates a new tracking page handler.
func NewRedirectHandler(
	links tracking.LinkRepository,
	recorder *tracking.Recorder,
	cipher *payload.Cipher,
	publishClick messaging.Publish[analytics.ClickRecordedEvent],
	logger *zap.Logger,
) *RedirectHandler {
	return &RedirectHandler{
		links:        links,
		recorder:     recorder,
		cipher:       cipher,
		publishClick: publishClick,
		logger:       logger,
	}
}

// TrackingPageRequest is the input for serving a tracking page.
type TrackingPageRequest struct {
	Slug string `path:"slug" maxLength:"128" doc:"Short link slug"`
}

// TrackingPageResponse is the rendered tracking page.
type TrackingPageResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// ServeTrackingPage looks up the link, records the click and renders the
// page. A failed click insert does not block the page: the visitor still
// gets content and the telemetry channel falls back to the most-recent
// click for that link.
func (h *RedirectHandler) ServeTrackingPage(ctx context.Context, req *TrackingPageRequest) (*TrackingPageResponse, error) {
	link, err := h.links.GetBySlug(ctx, tracking.Slug(req.Slug))
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return nil, huma.Error404NotFound("link not found")
		}

		h.logger.Error("failed to look up link", zap.String("slug", req.Slug), zap.Error(err))

		return nil, storeError(err)
	}

	meta := RequestMetaFromContext(ctx)
	clickID := h.recorder.Record(ctx, link.ID, meta.ClientIP, meta.UserAgent, meta.Referrer)

	if clickID != nil {
		event := &analytics.ClickRecordedEvent{
			ClickID:   int64(*clickID),
			LinkID:    int64(link.ID),
			Slug:      string(link.Slug),
			IPAddress: meta.ClientIP,
			UserAgent: meta.UserAgent,
			Referrer:  meta.Referrer,
			ClickedAt: time.Now().UTC(),
		}
		if err := h.publishClick(event); err != nil {
			h.logger.Warn("failed to publish click recorded event",
				zap.Int64("clickId", event.ClickID),
				zap.Error(err),
			)
		}
	}

	var clickIDValue *int64
	if clickID != nil {
		id := int64(*clickID)
		clickIDValue = &id
	}

	page, err := renderTrackingPage(trackingPageData{
		LinkID:        int64(link.ID),
		ClickID:       clickIDLiteral(clickIDValue),
		Slug:          string(link.Slug),
		KeyHex:        h.cipher.KeyHex(),
		TelemetryPath: "/telemetry",
	})
	if err != nil {
		h.logger.Error("failed to render tracking page", zap.String("slug", req.Slug), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to render page")
	}

	return &TrackingPageResponse{
		ContentType: "text/html; charset=utf-8",
		Body:        page,
	}, nil
}
