package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultIPAPIBaseURL is the free ip-api.com endpoint.
const DefaultIPAPIBaseURL = "https://ip-api.com"

const lookupTimeout = 5 * time.Second

// IPAPIResolver resolves IPs through the ip-api.com JSON service with a
// single bounded-timeout attempt per click. Any failure (non-2xx, error
// status in the payload, network error, timeout) degrades to an all-nil
// estimate.
type IPAPIResolver struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewIPAPIResolver creates a resolver against the given base URL.
func NewIPAPIResolver(baseURL string, logger *zap.Logger) *IPAPIResolver {
	return &IPAPIResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: lookupTimeout},
		logger:  logger,
	}
}

type ipAPIResponse struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Country    *string  `json:"country"`
	City       *string  `json:"city"`
	RegionName *string  `json:"regionName"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
}

// Resolve implements Resolver. Private and loopback addresses are
// classified locally without a network call.
func (r *IPAPIResolver) Resolve(ctx context.Context, ip string) LocationEstimate {
	if IsPrivateIP(ip) {
		r.logger.Warn("skipping geolocation for local/private ip", zap.String("ip", ip))

		return LocalEstimate()
	}

	lookupURL := fmt.Sprintf(
		"%s/json/%s?fields=status,message,country,city,regionName,lat,lon",
		r.baseURL, url.PathEscape(ip),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		r.logger.Error("failed to build geolocation request", zap.String("ip", ip), zap.Error(err))

		return LocationEstimate{}
	}

	req.Header.Set("User-Agent", "linktrace/1.0")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("geolocation lookup failed", zap.String("ip", ip), zap.Error(err))

		return LocationEstimate{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("geolocation lookup returned non-success status",
			zap.String("ip", ip),
			zap.Int("status", resp.StatusCode),
		)

		return LocationEstimate{}
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.logger.Warn("failed to decode geolocation response", zap.String("ip", ip), zap.Error(err))

		return LocationEstimate{}
	}

	if body.Status != "success" {
		r.logger.Warn("geolocation service reported error",
			zap.String("ip", ip),
			zap.String("message", body.Message),
		)

		return LocationEstimate{}
	}

	r.logger.Info("location found for ip",
		zap.String("ip", ip),
		zap.Stringp("city", body.City),
		zap.Stringp("country", body.Country),
	)

	return LocationEstimate{
		Country:   body.Country,
		City:      body.City,
		Region:    body.RegionName,
		Latitude:  body.Lat,
		Longitude: body.Lon,
	}
}

// Compile-time check.
var _ Resolver = (*IPAPIResolver)(nil)
