package geo

import (
	"context"
	"net/netip"
	"strings"
)

// LocationEstimate is a best-effort location for an IP address. Every
// field is independently nullable; an all-nil estimate means the lookup
// failed and the click proceeds without location data.
type LocationEstimate struct {
	Country   *string
	City      *string
	Region    *string
	Latitude  *float64
	Longitude *float64
}

// Resolver maps a client IP address to a location estimate. Resolve
// never returns an error: enrichment failure must not be fatal to the
// click-creation path.
type Resolver interface {
	Resolve(ctx context.Context, ip string) LocationEstimate
}

const (
	sentinelCountry = "Local/Private IP"
	sentinelPlace   = "Not Available"
)

// LocalEstimate is the sentinel returned for missing, loopback, or
// private-range addresses, for which no lookup is made.
func LocalEstimate() LocationEstimate {
	country := sentinelCountry
	place := sentinelPlace

	return LocationEstimate{
		Country: &country,
		City:    &place,
		Region:  &place,
	}
}

// IsPrivateIP reports whether the address should skip geolocation:
// empty, unparsable, loopback, link-local, or private-range.
func IsPrivateIP(ip string) bool {
	if ip == "" {
		return true
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return true
	}

	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
