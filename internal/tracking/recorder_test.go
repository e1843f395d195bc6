package tracking_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/serroba/linktrace/internal/geo"
	"github.com/serroba/linktrace/internal/store"
	"github.com/serroba/linktrace/internal/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubResolver returns a fixed location estimate.
type stubResolver struct {
	estimate geo.LocationEstimate
}

func (s *stubResolver) Resolve(_ context.Context, _ string) geo.LocationEstimate {
	return s.estimate
}

// failingClicks fails every mutation.
type failingClicks struct {
	tracking.ClickRepository
	err error
}

func (f *failingClicks) Insert(_ context.Context, _ *tracking.ClickRecord) (tracking.ClickID, error) {
	return 0, f.err
}

func (f *failingClicks) UpdateCoordinates(_ context.Context, _ tracking.ClickID, _, _ float64) error {
	return f.err
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestRecord(t *testing.T) {
	t.Run("stores click with IP-derived place", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		resolver := &stubResolver{estimate: geo.LocationEstimate{
			Country: strPtr("United States"),
			City:    strPtr("New York"),
			Region:  strPtr("New York"),
		}}
		recorder := tracking.NewRecorder(memStore, resolver, zap.NewNop())

		id := recorder.Record(context.Background(), 1, "203.0.113.9", "curl/8.0", "https://news.example.com/")

		require.NotNil(t, id)

		click, ok := memStore.Click(*id)
		require.True(t, ok)
		assert.Equal(t, tracking.LinkID(1), click.LinkID)
		assert.Equal(t, "203.0.113.9", click.IPAddress)
		assert.Equal(t, "curl/8.0", click.UserAgent)
		assert.Equal(t, "https://news.example.com/", click.Referrer)
		assert.Equal(t, "United States", *click.Country)
		assert.Equal(t, "New York", *click.City)
	})

	t.Run("leaves coordinates nil until a GPS update", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		resolver := &stubResolver{estimate: geo.LocationEstimate{
			Country:   strPtr("United States"),
			Latitude:  floatPtr(40.7),
			Longitude: floatPtr(-74.0),
		}}
		recorder := tracking.NewRecorder(memStore, resolver, zap.NewNop())

		id := recorder.Record(context.Background(), 1, "203.0.113.9", "", "")

		require.NotNil(t, id)

		click, _ := memStore.Click(*id)
		assert.Nil(t, click.Latitude)
		assert.Nil(t, click.Longitude)
	})

	t.Run("stores click with sentinel place for private IP", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		recorder := tracking.NewRecorder(memStore, &stubResolver{estimate: geo.LocalEstimate()}, zap.NewNop())

		id := recorder.Record(context.Background(), 1, "127.0.0.1", "", "")

		require.NotNil(t, id)

		click, _ := memStore.Click(*id)
		assert.Equal(t, "Local/Private IP", *click.Country)
	})

	t.Run("returns nil when the store fails", func(t *testing.T) {
		clicks := &failingClicks{err: errors.New("connection refused")}
		recorder := tracking.NewRecorder(clicks, &stubResolver{}, zap.NewNop())

		id := recorder.Record(context.Background(), 1, "203.0.113.9", "", "")

		assert.Nil(t, id)
	})
}

func TestApplyGPSUpdate(t *testing.T) {
	setup := func(t *testing.T) (*store.MemoryStore, *tracking.Recorder, tracking.ClickID) {
		t.Helper()

		memStore := store.NewMemoryStore()
		recorder := tracking.NewRecorder(memStore, &stubResolver{estimate: geo.LocationEstimate{
			Country: strPtr("United States"),
		}}, zap.NewNop())

		id := recorder.Record(context.Background(), 1, "203.0.113.9", "", "")
		require.NotNil(t, id)

		return memStore, recorder, *id
	}

	t.Run("applies valid coordinates", func(t *testing.T) {
		memStore, recorder, id := setup(t)

		outcome, err := recorder.ApplyGPSUpdate(context.Background(), id, floatPtr(40.7128), floatPtr(-74.006))

		require.NoError(t, err)
		assert.Equal(t, tracking.OutcomeApplied, outcome)

		click, _ := memStore.Click(id)
		assert.Equal(t, 40.7128, *click.Latitude)
		assert.Equal(t, -74.006, *click.Longitude)
	})

	t.Run("only coordinates change on update", func(t *testing.T) {
		memStore, recorder, id := setup(t)

		before, _ := memStore.Click(id)

		_, err := recorder.ApplyGPSUpdate(context.Background(), id, floatPtr(10), floatPtr(20))
		require.NoError(t, err)

		after, _ := memStore.Click(id)
		assert.Equal(t, before.Country, after.Country)
		assert.Equal(t, before.IPAddress, after.IPAddress)
		assert.Equal(t, before.ClickedAt, after.ClickedAt)
	})

	t.Run("repeated update overwrites coordinates", func(t *testing.T) {
		memStore, recorder, id := setup(t)

		_, err := recorder.ApplyGPSUpdate(context.Background(), id, floatPtr(1), floatPtr(2))
		require.NoError(t, err)
		_, err = recorder.ApplyGPSUpdate(context.Background(), id, floatPtr(3), floatPtr(4))
		require.NoError(t, err)

		click, _ := memStore.Click(id)
		assert.Equal(t, 3.0, *click.Latitude)
		assert.Equal(t, 4.0, *click.Longitude)
	})

	t.Run("skips without mutation on invalid coordinates", func(t *testing.T) {
		cases := []struct {
			name     string
			lat, lng *float64
		}{
			{"both nil", nil, nil},
			{"missing longitude", floatPtr(40), nil},
			{"missing latitude", nil, floatPtr(-74)},
			{"latitude above range", floatPtr(90.1), floatPtr(0)},
			{"latitude below range", floatPtr(-91), floatPtr(0)},
			{"longitude above range", floatPtr(0), floatPtr(181)},
			{"longitude below range", floatPtr(0), floatPtr(-180.5)},
			{"latitude NaN", floatPtr(math.NaN()), floatPtr(0)},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				memStore, recorder, id := setup(t)

				outcome, err := recorder.ApplyGPSUpdate(context.Background(), id, tc.lat, tc.lng)

				require.NoError(t, err)
				assert.Equal(t, tracking.OutcomeSkipped, outcome)

				click, _ := memStore.Click(id)
				assert.Nil(t, click.Latitude)
				assert.Nil(t, click.Longitude)
			})
		}
	})

	t.Run("boundary coordinates are valid", func(t *testing.T) {
		memStore, recorder, id := setup(t)

		outcome, err := recorder.ApplyGPSUpdate(context.Background(), id, floatPtr(-90), floatPtr(180))

		require.NoError(t, err)
		assert.Equal(t, tracking.OutcomeApplied, outcome)

		click, _ := memStore.Click(id)
		assert.Equal(t, -90.0, *click.Latitude)
	})

	t.Run("zero zero is a valid coordinate pair", func(t *testing.T) {
		_, recorder, id := setup(t)

		outcome, err := recorder.ApplyGPSUpdate(context.Background(), id, floatPtr(0), floatPtr(0))

		require.NoError(t, err)
		assert.Equal(t, tracking.OutcomeApplied, outcome)
	})

	t.Run("missing record surfaces the store error", func(t *testing.T) {
		memStore := store.NewMemoryStore()
		recorder := tracking.NewRecorder(memStore, &stubResolver{}, zap.NewNop())

		outcome, err := recorder.ApplyGPSUpdate(context.Background(), 999, floatPtr(1), floatPtr(2))

		assert.ErrorIs(t, err, tracking.ErrNotFound)
		assert.Equal(t, tracking.OutcomeSkipped, outcome)
	})
}
