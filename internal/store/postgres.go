package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linktrace/internal/session"
	"github.com/serroba/linktrace/internal/tracking"
)

// PostgresStore is the PostgreSQL record store for links, click records,
// and users.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed record store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) Create(ctx context.Context, name string, slug tracking.Slug) (*tracking.Link, error) {
	query := `
		INSERT INTO links (name, slug)
		VALUES ($1, $2)
		RETURNING id, name, slug, created_at
	`

	var link tracking.Link

	err := p.pool.QueryRow(ctx, query, name, string(slug)).Scan(
		&link.ID,
		&link.Name,
		&link.Slug,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}

	return &link, nil
}

func (p *PostgresStore) GetBySlug(ctx context.Context, slug tracking.Slug) (*tracking.Link, error) {
	return p.getLink(ctx, `SELECT id, name, slug, created_at FROM links WHERE slug = $1`, string(slug))
}

func (p *PostgresStore) GetByID(ctx context.Context, id tracking.LinkID) (*tracking.Link, error) {
	return p.getLink(ctx, `SELECT id, name, slug, created_at FROM links WHERE id = $1`, int64(id))
}

func (p *PostgresStore) getLink(ctx context.Context, query string, arg any) (*tracking.Link, error) {
	var link tracking.Link

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&link.ID,
		&link.Name,
		&link.Slug,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracking.ErrNotFound
		}

		return nil, classify(err)
	}

	return &link, nil
}

func (p *PostgresStore) List(ctx context.Context) ([]tracking.Link, error) {
	query := `SELECT id, name, slug, created_at FROM links ORDER BY created_at DESC`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var links []tracking.Link

	for rows.Next() {
		var link tracking.Link
		if err := rows.Scan(&link.ID, &link.Name, &link.Slug, &link.CreatedAt); err != nil {
			return nil, classify(err)
		}

		links = append(links, link)
	}

	return links, classify(rows.Err())
}

func (p *PostgresStore) Delete(ctx context.Context, id tracking.LinkID) error {
	// Associated clicks are removed by the FK cascade.
	tag, err := p.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, int64(id))
	if err != nil {
		return classify(err)
	}

	if tag.RowsAffected() == 0 {
		return tracking.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) Insert(ctx context.Context, click *tracking.ClickRecord) (tracking.ClickID, error) {
	query := `
		INSERT INTO link_clicks (link_id, ip_address, user_agent, referrer, country, city, region)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	var id tracking.ClickID

	err := p.pool.QueryRow(ctx, query,
		int64(click.LinkID),
		click.IPAddress,
		click.UserAgent,
		click.Referrer,
		click.Country,
		click.City,
		click.Region,
	).Scan(&id)
	if err != nil {
		return 0, classify(err)
	}

	return id, nil
}

func (p *PostgresStore) UpdateCoordinates(ctx context.Context, id tracking.ClickID, lat, lng float64) error {
	query := `UPDATE link_clicks SET latitude = $1, longitude = $2 WHERE id = $3`

	tag, err := p.pool.Exec(ctx, query, lat, lng, int64(id))
	if err != nil {
		return classify(err)
	}

	if tag.RowsAffected() == 0 {
		return tracking.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) UpdatePlace(ctx context.Context, id tracking.ClickID, place tracking.Place) error {
	query := `UPDATE link_clicks SET country = $1, city = $2, region = $3 WHERE id = $4`

	tag, err := p.pool.Exec(ctx, query, place.Country, place.City, place.Region, int64(id))
	if err != nil {
		return classify(err)
	}

	if tag.RowsAffected() == 0 {
		return tracking.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) MostRecent(ctx context.Context, linkID tracking.LinkID) (tracking.ClickID, error) {
	// id DESC makes the tie-break for identical clicked_at values
	// explicit: store insertion order, latest insert wins.
	query := `
		SELECT id FROM link_clicks
		WHERE link_id = $1
		ORDER BY clicked_at DESC, id DESC
		LIMIT 1
	`

	var id tracking.ClickID

	err := p.pool.QueryRow(ctx, query, int64(linkID)).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, tracking.ErrNotFound
		}

		return 0, classify(err)
	}

	return id, nil
}

func (p *PostgresStore) ListByLink(ctx context.Context, linkID tracking.LinkID) ([]tracking.ClickRecord, error) {
	query := `
		SELECT id, link_id, ip_address, user_agent, referrer, country, city, region, latitude, longitude, clicked_at
		FROM link_clicks
		WHERE link_id = $1
		ORDER BY clicked_at DESC, id DESC
	`

	rows, err := p.pool.Query(ctx, query, int64(linkID))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var clicks []tracking.ClickRecord

	for rows.Next() {
		var click tracking.ClickRecord

		err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.IPAddress,
			&click.UserAgent,
			&click.Referrer,
			&click.Country,
			&click.City,
			&click.Region,
			&click.Latitude,
			&click.Longitude,
			&click.ClickedAt,
		)
		if err != nil {
			return nil, classify(err)
		}

		clicks = append(clicks, click)
	}

	return clicks, classify(rows.Err())
}

func (p *PostgresStore) GetByUsername(ctx context.Context, username string) (*session.User, error) {
	query := `SELECT id, username, password FROM users WHERE username = $1`

	var user session.User

	err := p.pool.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tracking.ErrNotFound
		}

		return nil, classify(err)
	}

	return &user, nil
}

// Compile-time checks.
var (
	_ tracking.LinkRepository  = (*PostgresStore)(nil)
	_ tracking.ClickRepository = (*PostgresStore)(nil)
	_ session.UserRepository   = (*PostgresStore)(nil)
)
