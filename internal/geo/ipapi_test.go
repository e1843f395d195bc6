package geo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/serroba/linktrace/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIsPrivateIP(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"", true},
		{"not-an-ip", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"10.0.0.5", true},
		{"172.16.1.1", true},
		{"192.168.1.20", true},
		{"169.254.1.1", true},
		{"0.0.0.0", true},
		{"  192.168.1.20  ", true},
		{"8.8.8.8", false},
		{"203.0.113.9", false},
		{"2001:4860:4860::8888", false},
	}

	for _, tc := range cases {
		t.Run(tc.ip, func(t *testing.T) {
			assert.Equal(t, tc.want, geo.IsPrivateIP(tc.ip))
		})
	}
}

func TestIPAPIResolve(t *testing.T) {
	t.Run("resolves a public ip", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/json/203.0.113.9", r.URL.Path)
			assert.Equal(t, "status,message,country,city,regionName,lat,lon", r.URL.Query().Get("fields"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": "success",
				"country": "United States",
				"city": "New York",
				"regionName": "New York",
				"lat": 40.7128,
				"lon": -74.006
			}`))
		}))
		defer server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "203.0.113.9")

		require.NotNil(t, estimate.Country)
		assert.Equal(t, "United States", *estimate.Country)
		assert.Equal(t, "New York", *estimate.City)
		assert.Equal(t, "New York", *estimate.Region)
		assert.Equal(t, 40.7128, *estimate.Latitude)
		assert.Equal(t, -74.006, *estimate.Longitude)
	})

	t.Run("private ip short-circuits to the sentinel", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		}))
		defer server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "192.168.1.20")

		assert.False(t, called)
		require.NotNil(t, estimate.Country)
		assert.Equal(t, "Local/Private IP", *estimate.Country)
		assert.Equal(t, "Not Available", *estimate.City)
		assert.Equal(t, "Not Available", *estimate.Region)
		assert.Nil(t, estimate.Latitude)
		assert.Nil(t, estimate.Longitude)
	})

	t.Run("service-reported failure degrades to empty estimate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "fail", "message": "reserved range"}`))
		}))
		defer server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "203.0.113.9")

		assert.Equal(t, geo.LocationEstimate{}, estimate)
	})

	t.Run("http error degrades to empty estimate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "203.0.113.9")

		assert.Equal(t, geo.LocationEstimate{}, estimate)
	})

	t.Run("unreachable service degrades to empty estimate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
		server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "203.0.113.9")

		assert.Equal(t, geo.LocationEstimate{}, estimate)
	})

	t.Run("malformed body degrades to empty estimate", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "203.0.113.9")

		assert.Equal(t, geo.LocationEstimate{}, estimate)
	})

	t.Run("partial payload keeps present fields", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status": "success", "country": "Germany"}`))
		}))
		defer server.Close()

		resolver := geo.NewIPAPIResolver(server.URL, zap.NewNop())

		estimate := resolver.Resolve(context.Background(), "203.0.113.9")

		require.NotNil(t, estimate.Country)
		assert.Equal(t, "Germany", *estimate.Country)
		assert.Nil(t, estimate.City)
		assert.Nil(t, estimate.Latitude)
	})
}
