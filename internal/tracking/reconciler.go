package tracking

import (
	"context"
	"errors"
)

// ErrMissingLinkRef is returned when an update carries neither a link id
// nor a slug.
var ErrMissingLinkRef = errors.New("link_id or slug is required")

// Reconciler matches an incoming location update to the click record it
// belongs to. An explicit click_id is trusted as-is; without one the
// newest click for the link is targeted, which is a documented
// best-effort heuristic: concurrent visits to the same link inside the
// reconciliation window can misattribute an update.
type Reconciler struct {
	links  LinkRepository
	clicks ClickRepository
}

// NewReconciler creates a new reconciler.
func NewReconciler(links LinkRepository, clicks ClickRepository) *Reconciler {
	return &Reconciler{
		links:  links,
		clicks: clicks,
	}
}

// Resolve returns the click record id an update targets.
//
// The link is always resolved first so that an unknown link surfaces as
// ErrNotFound even when a click_id was supplied. An explicit click_id is
// then returned without an existence check; the subsequent update's own
// not-found signal covers stale ids. Otherwise the most recent click for
// the link wins, ordered by clicked_at descending with store insertion
// order (primary key, descending) breaking ties.
func (r *Reconciler) Resolve(ctx context.Context, update *LocationUpdate) (ClickID, error) {
	link, err := r.resolveLink(ctx, update)
	if err != nil {
		return 0, err
	}

	if update.ClickID != nil {
		return ClickID(*update.ClickID), nil
	}

	return r.clicks.MostRecent(ctx, link.ID)
}

func (r *Reconciler) resolveLink(ctx context.Context, update *LocationUpdate) (*Link, error) {
	if update.LinkID != nil {
		return r.links.GetByID(ctx, LinkID(*update.LinkID))
	}

	if update.Slug != "" {
		return r.links.GetBySlug(ctx, Slug(update.Slug))
	}

	return nil, ErrMissingLinkRef
}
