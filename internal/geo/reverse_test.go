package geo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/linktrace/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseGeocode(t *testing.T) {
	t.Run("maps the response to a place", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/data/reverse-geocode-client", r.URL.Path)
			assert.Equal(t, "en", r.URL.Query().Get("localityLanguage"))
			assert.NotEmpty(t, r.URL.Query().Get("latitude"))
			assert.NotEmpty(t, r.URL.Query().Get("longitude"))

			_, _ = w.Write([]byte(`{
				"countryName": "United States",
				"city": "New York",
				"principalSubdivision": "New York"
			}`))
		}))
		defer server.Close()

		geocoder := geo.NewBigDataCloudGeocoder(server.URL)

		place, err := geocoder.ReverseGeocode(context.Background(), 40.7128, -74.006)

		require.NoError(t, err)
		assert.Equal(t, "United States", *place.Country)
		assert.Equal(t, "New York", *place.City)
		assert.Equal(t, "New York", *place.Region)
	})

	t.Run("falls back to locality when city is empty", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"countryName": "Iceland",
				"city": "",
				"locality": "Vik",
				"principalSubdivision": "Southern Region"
			}`))
		}))
		defer server.Close()

		geocoder := geo.NewBigDataCloudGeocoder(server.URL)

		place, err := geocoder.ReverseGeocode(context.Background(), 63.4187, -19.0060)

		require.NoError(t, err)
		assert.Equal(t, "Vik", *place.City)
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		geocoder := geo.NewBigDataCloudGeocoder(server.URL)

		_, err := geocoder.ReverseGeocode(context.Background(), 1, 2)

		assert.Error(t, err)
	})

	t.Run("malformed body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		geocoder := geo.NewBigDataCloudGeocoder(server.URL)

		_, err := geocoder.ReverseGeocode(context.Background(), 1, 2)

		assert.Error(t, err)
	})
}
