package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/serroba/linktrace/internal/session"
	"github.com/serroba/linktrace/internal/tracking"
)

// MemoryStore is an in-memory record store used in tests. It mirrors the
// Postgres ordering semantics: clicks sort by clicked_at descending with
// id descending as the tie-break.
type MemoryStore struct {
	mu         sync.RWMutex
	nextLinkID int64
	nextClick  int64
	links      map[tracking.LinkID]tracking.Link
	clicks     map[tracking.ClickID]tracking.ClickRecord
	users      map[string]session.User
}

// NewMemoryStore creates a new in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[tracking.LinkID]tracking.Link),
		clicks: make(map[tracking.ClickID]tracking.ClickRecord),
		users:  make(map[string]session.User),
	}
}

func (m *MemoryStore) Create(_ context.Context, name string, slug tracking.Slug) (*tracking.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextLinkID++
	link := tracking.Link{
		ID:        tracking.LinkID(m.nextLinkID),
		Slug:      slug,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.links[link.ID] = link

	return &link, nil
}

// AddLink seeds a link with a fixed id, for tests.
func (m *MemoryStore) AddLink(link tracking.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if int64(link.ID) > m.nextLinkID {
		m.nextLinkID = int64(link.ID)
	}

	m.links[link.ID] = link
}

// AddUser seeds a login user, for tests.
func (m *MemoryStore) AddUser(user session.User) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[user.Username] = user
}

func (m *MemoryStore) GetBySlug(_ context.Context, slug tracking.Slug) (*tracking.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, link := range m.links {
		if link.Slug == slug {
			l := link

			return &l, nil
		}
	}

	return nil, tracking.ErrNotFound
}

func (m *MemoryStore) GetByID(_ context.Context, id tracking.LinkID) (*tracking.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[id]
	if !ok {
		return nil, tracking.ErrNotFound
	}

	return &link, nil
}

func (m *MemoryStore) List(_ context.Context) ([]tracking.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]tracking.Link, 0, len(m.links))
	for _, link := range m.links {
		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool {
		return links[i].CreatedAt.After(links[j].CreatedAt)
	})

	return links, nil
}

func (m *MemoryStore) Delete(_ context.Context, id tracking.LinkID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[id]; !ok {
		return tracking.ErrNotFound
	}

	delete(m.links, id)

	for clickID, click := range m.clicks {
		if click.LinkID == id {
			delete(m.clicks, clickID)
		}
	}

	return nil
}

func (m *MemoryStore) Insert(_ context.Context, click *tracking.ClickRecord) (tracking.ClickID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextClick++

	stored := *click
	stored.ID = tracking.ClickID(m.nextClick)

	if stored.ClickedAt.IsZero() {
		stored.ClickedAt = time.Now()
	}

	m.clicks[stored.ID] = stored

	return stored.ID, nil
}

func (m *MemoryStore) UpdateCoordinates(_ context.Context, id tracking.ClickID, lat, lng float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	click, ok := m.clicks[id]
	if !ok {
		return tracking.ErrNotFound
	}

	click.Latitude = &lat
	click.Longitude = &lng
	m.clicks[id] = click

	return nil
}

func (m *MemoryStore) UpdatePlace(_ context.Context, id tracking.ClickID, place tracking.Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	click, ok := m.clicks[id]
	if !ok {
		return tracking.ErrNotFound
	}

	click.Country = place.Country
	click.City = place.City
	click.Region = place.Region
	m.clicks[id] = click

	return nil
}

func (m *MemoryStore) MostRecent(_ context.Context, linkID tracking.LinkID) (tracking.ClickID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		found bool
		best  tracking.ClickRecord
	)

	for _, click := range m.clicks {
		if click.LinkID != linkID {
			continue
		}

		if !found || newer(click, best) {
			best = click
			found = true
		}
	}

	if !found {
		return 0, tracking.ErrNotFound
	}

	return best.ID, nil
}

func (m *MemoryStore) ListByLink(_ context.Context, linkID tracking.LinkID) ([]tracking.ClickRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var clicks []tracking.ClickRecord

	for _, click := range m.clicks {
		if click.LinkID == linkID {
			clicks = append(clicks, click)
		}
	}

	sort.Slice(clicks, func(i, j int) bool {
		return newer(clicks[i], clicks[j])
	})

	return clicks, nil
}

// Click returns a stored click by id, for test assertions.
func (m *MemoryStore) Click(id tracking.ClickID) (tracking.ClickRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	click, ok := m.clicks[id]

	return click, ok
}

func (m *MemoryStore) GetByUsername(_ context.Context, username string) (*session.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[username]
	if !ok {
		return nil, tracking.ErrNotFound
	}

	return &user, nil
}

func newer(a, b tracking.ClickRecord) bool {
	if !a.ClickedAt.Equal(b.ClickedAt) {
		return a.ClickedAt.After(b.ClickedAt)
	}

	return a.ID > b.ID
}

// Compile-time checks.
var (
	_ tracking.LinkRepository  = (*MemoryStore)(nil)
	_ tracking.ClickRepository = (*MemoryStore)(nil)
	_ session.UserRepository   = (*MemoryStore)(nil)
)
