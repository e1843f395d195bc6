package handlers

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/ratelimit"
)

// RegisterRoutes wires all operations into the API. Rate limit behavior
// rides along as operation metadata: the redirect path stays relaxed so
// shared links survive bursts, telemetry and link management write paths
// are capped, and health is exempt.
func RegisterRoutes(
	api huma.API,
	redirect *RedirectHandler,
	telemetry *TelemetryHandler,
	links *LinkHandler,
	auth *AuthHandler,
	health *HealthHandler,
) {
	huma.Register(api, huma.Operation{
		OperationID: "serve-tracking-page",
		Method:      http.MethodGet,
		Path:        "/l/{slug}",
		Summary:     "Serve the tracking page for a short link",
		Tags:        []string{"Tracking"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 1000},
				},
			},
		},
	}, redirect.ServeTrackingPage)

	huma.Register(api, huma.Operation{
		OperationID: "receive-location",
		Method:      http.MethodPost,
		Path:        "/telemetry",
		Summary:     "Receive an encrypted location update",
		Tags:        []string{"Tracking"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 60},
				},
			},
		},
	}, telemetry.ReceiveLocation)

	huma.Register(api, huma.Operation{
		OperationID: "create-link",
		Method:      http.MethodPost,
		Path:        "/api/links",
		Summary:     "Create a tracked link",
		Tags:        []string{"Links"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
					{Window: time.Hour, Max: 100},
					{Window: 24 * time.Hour, Max: 500},
				},
			},
		},
	}, links.CreateLink)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/api/links",
		Summary:     "List all tracked links",
		Tags:        []string{"Links"},
	}, links.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "delete-link",
		Method:      http.MethodDelete,
		Path:        "/api/links/{slug}",
		Summary:     "Delete a tracked link",
		Tags:        []string{"Links"},
	}, links.DeleteLink)

	huma.Register(api, huma.Operation{
		OperationID: "get-link-stats",
		Method:      http.MethodGet,
		Path:        "/api/links/{slug}/stats",
		Summary:     "Get click stats for a link",
		Tags:        []string{"Links"},
	}, links.GetLinkStats)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Summary:     "Log in and receive a session cookie",
		Tags:        []string{"Auth"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Limits: []ratelimit.LimitConfig{
					{Window: time.Minute, Max: 10},
				},
			},
		},
	}, auth.Login)

	huma.Register(api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/logout",
		Summary:     "Log out and clear the session cookie",
		Tags:        []string{"Auth"},
	}, auth.Logout)

	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{
				Disabled: true,
			},
		},
	}, health.Check)
}
