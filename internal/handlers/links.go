package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/session"
	"github.com/serroba/linktrace/internal/store"
	"github.com/serroba/linktrace/internal/tracking"
	"go.uber.org/zap"
)

// LinkHandler manages tracked links and their click stats.
type LinkHandler struct {
	links    tracking.LinkRepository
	clicks   tracking.ClickRepository
	sessions session.Store
	generate func() string
	baseURL  string
	logger   *zap.Logger
}

// NewLinkHandler creates a new link handler. generate produces the
// random slug suffix, baseURL is used to build shareable short URLs.
func NewLinkHandler(
	links tracking.LinkRepository,
	clicks tracking.ClickRepository,
	sessions session.Store,
	generate func() string,
	baseURL string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		links:    links,
		clicks:   clicks,
		sessions: sessions,
		generate: generate,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// LinkView is the JSON representation of a link.
type LinkView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// ClickView is the JSON representation of a click record.
type ClickView struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"linkId"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	Referrer  string    `json:"referrer,omitempty"`
	Country   *string   `json:"country"`
	City      *string   `json:"city"`
	Region    *string   `json:"region"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	ClickedAt time.Time `json:"clickedAt"`
}

// CreateLinkRequest is the input for creating a link.
type CreateLinkRequest struct {
	SessionID string `cookie:"sessionId" required:"false"`
	Body      struct {
		Name string `json:"name" minLength:"1" maxLength:"200" doc:"Display name for the link"`
	}
}

// CreateLinkResponse is returned after a link is created.
type CreateLinkResponse struct {
	Body struct {
		Success bool     `json:"success"`
		Link    LinkView `json:"link"`
	}
}

// ListLinksRequest is the input for listing links.
type ListLinksRequest struct{}

// ListLinksResponse is the list of all links.
type ListLinksResponse struct {
	Body struct {
		Links []LinkView `json:"links"`
	}
}

// DeleteLinkRequest is the input for deleting a link.
type DeleteLinkRequest struct {
	SessionID string `cookie:"sessionId" required:"false"`
	Slug      string `path:"slug" maxLength:"128" doc:"Short link slug"`
}

// DeleteLinkResponse acknowledges a deletion.
type DeleteLinkResponse struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// LinkStatsRequest is the input for fetching a link's click stats.
type LinkStatsRequest struct {
	SessionID string `cookie:"sessionId" required:"false"`
	Slug      string `path:"slug" maxLength:"128" doc:"Short link slug"`
}

// LinkStatsResponse is a link with its full click history.
type LinkStatsResponse struct {
	Body struct {
		Link        LinkView    `json:"link"`
		TotalClicks int         `json:"totalClicks"`
		Clicks      []ClickView `json:"clicks"`
	}
}

// CreateLink creates a new tracked link. The slug is derived from the
// name plus a random suffix so two links with the same name never
// collide.
func (h *LinkHandler) CreateLink(ctx context.Context, req *CreateLinkRequest) (*CreateLinkResponse, error) {
	if err := h.authenticate(ctx, req.SessionID); err != nil {
		return nil, err
	}

	slug := tracking.Slug(slugify(req.Body.Name) + "-" + h.generate())

	link, err := h.links.Create(ctx, req.Body.Name, slug)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, huma.Error409Conflict("a link with this slug already exists")
		}

		h.logger.Error("failed to create link", zap.String("name", req.Body.Name), zap.Error(err))

		return nil, storeError(err)
	}

	h.logger.Info("link created",
		zap.Int64("linkId", int64(link.ID)),
		zap.String("slug", string(link.Slug)),
	)

	resp := &CreateLinkResponse{}
	resp.Body.Success = true
	resp.Body.Link = h.linkView(link)

	return resp, nil
}

// ListLinks returns all links, newest first.
func (h *LinkHandler) ListLinks(ctx context.Context, _ *ListLinksRequest) (*ListLinksResponse, error) {
	links, err := h.links.List(ctx)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))

		return nil, storeError(err)
	}

	resp := &ListLinksResponse{}
	resp.Body.Links = make([]LinkView, 0, len(links))
	for i := range links {
		resp.Body.Links = append(resp.Body.Links, h.linkView(&links[i]))
	}

	return resp, nil
}

// DeleteLink removes a link by slug. Click records go with it via the
// foreign key cascade.
func (h *LinkHandler) DeleteLink(ctx context.Context, req *DeleteLinkRequest) (*DeleteLinkResponse, error) {
	if err := h.authenticate(ctx, req.SessionID); err != nil {
		return nil, err
	}

	link, err := h.links.GetBySlug(ctx, tracking.Slug(req.Slug))
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return nil, huma.Error404NotFound("link not found")
		}

		return nil, storeError(err)
	}

	if err := h.links.Delete(ctx, link.ID); err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return nil, huma.Error404NotFound("link not found")
		}

		h.logger.Error("failed to delete link", zap.String("slug", req.Slug), zap.Error(err))

		return nil, storeError(err)
	}

	h.logger.Info("link deleted", zap.Int64("linkId", int64(link.ID)), zap.String("slug", req.Slug))

	resp := &DeleteLinkResponse{}
	resp.Body.Success = true

	return resp, nil
}

// GetLinkStats returns a link with its click history, newest click first.
func (h *LinkHandler) GetLinkStats(ctx context.Context, req *LinkStatsRequest) (*LinkStatsResponse, error) {
	if err := h.authenticate(ctx, req.SessionID); err != nil {
		return nil, err
	}

	link, err := h.links.GetBySlug(ctx, tracking.Slug(req.Slug))
	if err != nil {
		if errors.Is(err, tracking.ErrNotFound) {
			return nil, huma.Error404NotFound("link not found")
		}

		return nil, storeError(err)
	}

	clicks, err := h.clicks.ListByLink(ctx, link.ID)
	if err != nil {
		h.logger.Error("failed to list clicks", zap.String("slug", req.Slug), zap.Error(err))

		return nil, storeError(err)
	}

	resp := &LinkStatsResponse{}
	resp.Body.Link = h.linkView(link)
	resp.Body.TotalClicks = len(clicks)
	resp.Body.Clicks = make([]ClickView, 0, len(clicks))
	for i := range clicks {
		resp.Body.Clicks = append(resp.Body.Clicks, clickView(&clicks[i]))
	}

	return resp, nil
}

func (h *LinkHandler) authenticate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return huma.Error401Unauthorized("unauthorized, please login")
	}

	if _, err := h.sessions.Get(ctx, sessionID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return huma.Error401Unauthorized("unauthorized, please login")
		}

		h.logger.Error("failed to load session", zap.Error(err))

		return huma.Error500InternalServerError("session lookup failed")
	}

	return nil
}

func (h *LinkHandler) linkView(link *tracking.Link) LinkView {
	return LinkView{
		ID:        int64(link.ID),
		Name:      link.Name,
		Slug:      string(link.Slug),
		URL:       fmt.Sprintf("%s/l/%s", h.baseURL, link.Slug),
		CreatedAt: link.CreatedAt,
	}
}

func clickView(click *tracking.ClickRecord) ClickView {
	return ClickView{
		ID:        int64(click.ID),
		LinkID:    int64(click.LinkID),
		IPAddress: click.IPAddress,
		UserAgent: click.UserAgent,
		Referrer:  click.Referrer,
		Country:   click.Country,
		City:      click.City,
		Region:    click.Region,
		Latitude:  click.Latitude,
		Longitude: click.Longitude,
		ClickedAt: click.ClickedAt,
	}
}

// slugify lowercases the name and replaces anything that is not a letter
// or digit with a single dash.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false

			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}
