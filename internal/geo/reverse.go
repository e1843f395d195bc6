package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultReverseBaseURL is the free BigDataCloud client endpoint.
const DefaultReverseBaseURL = "https://api.bigdatacloud.net"

const reverseTimeout = 5 * time.Second

// ReverseGeocoder turns GPS coordinates into a place description.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (*ReversedPlace, error)
}

// ReversedPlace is the result of a reverse geocode.
type ReversedPlace struct {
	Country *string
	City    *string
	Region  *string
}

// BigDataCloudGeocoder reverse-geocodes through the BigDataCloud free
// client API. One attempt, bounded timeout, no retries; callers treat
// failures as best-effort.
type BigDataCloudGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewBigDataCloudGeocoder creates a geocoder against the given base URL.
func NewBigDataCloudGeocoder(baseURL string) *BigDataCloudGeocoder {
	return &BigDataCloudGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: reverseTimeout},
	}
}

type bigDataCloudResponse struct {
	CountryName          *string `json:"countryName"`
	City                 *string `json:"city"`
	Locality             *string `json:"locality"`
	PrincipalSubdivision *string `json:"principalSubdivision"`
}

func (g *BigDataCloudGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*ReversedPlace, error) {
	reverseURL := fmt.Sprintf(
		"%s/data/reverse-geocode-client?latitude=%f&longitude=%f&localityLanguage=en",
		g.baseURL, lat, lng,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reverseURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocode returned status %d", resp.StatusCode)
	}

	var body bigDataCloudResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	city := body.City
	if city == nil || *city == "" {
		city = body.Locality
	}

	return &ReversedPlace{
		Country: body.CountryName,
		City:    city,
		Region:  body.PrincipalSubdivision,
	}, nil
}

// Compile-time check.
var _ ReverseGeocoder = (*BigDataCloudGeocoder)(nil)
