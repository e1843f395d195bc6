package tracking

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a link or click record does not exist.
var ErrNotFound = errors.New("not found")

// LinkID identifies a tracked link.
type LinkID int64

// Slug is the URL-safe identifier a link is visited by, distinct from its id.
type Slug string

// Link is a named destination that visits are recorded against.
type Link struct {
	ID        LinkID
	Slug      Slug
	Name      string
	CreatedAt time.Time
}

// LinkRepository defines the store operations for links.
type LinkRepository interface {
	Create(ctx context.Context, name string, slug Slug) (*Link, error)
	GetBySlug(ctx context.Context, slug Slug) (*Link, error)
	GetByID(ctx context.Context, id LinkID) (*Link, error)
	List(ctx context.Context) ([]Link, error)
	Delete(ctx context.Context, id LinkID) error
}
