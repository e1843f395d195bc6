package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/ratelimit"
	"go.uber.org/zap"
)

// PolicyRateLimiter applies policy-based rate limiting with per-endpoint
// overrides from operation metadata: endpoints may disable limiting,
// pin a scope, or declare their own limit set.
func PolicyRateLimiter(
	api huma.API,
	limiter *ratelimit.PolicyLimiter,
	resolver ratelimit.ScopeResolver,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		path := operationPath(ctx)
		key := clientKey(ctx)

		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil {
			if cfg.Disabled {
				next(ctx)

				return
			}

			if len(cfg.Limits) > 0 {
				// Limits are keyed by route template, so all requests
				// hitting the same operation share counters per client.
				scope := ratelimit.Scope("endpoint:" + path)

				allowed, exceeded, err := limiter.AllowLimits(ctx.Context(), key, scope, cfg.Limits)
				if err != nil {
					logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
					_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

					return
				}

				if !allowed {
					writeLimitExceeded(api, ctx, exceeded, path, logger)

					return
				}

				next(ctx)

				return
			}
		}

		scopes := resolver.Resolve(ctx)

		allowed, exceeded, err := limiter.Allow(ctx.Context(), key, scopes)
		if err != nil {
			logger.Error("rate limit check failed", zap.String("path", path), zap.Error(err))
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error", err)

			return
		}

		if !allowed {
			writeLimitExceeded(api, ctx, exceeded, path, logger)

			return
		}

		next(ctx)
	}
}

func writeLimitExceeded(
	api huma.API,
	ctx huma.Context,
	exceeded *ratelimit.LimitExceeded,
	path string,
	logger *zap.Logger,
) {
	msg := "rate limit exceeded"
	if exceeded != nil {
		msg = fmt.Sprintf("rate limit exceeded: %d/%d requests in %s",
			exceeded.Count, exceeded.Config.Max, exceeded.Config.Window)
		logger.Warn("rate limit exceeded",
			zap.String("path", path),
			zap.String("method", ctx.Method()),
			zap.String("scope", string(exceeded.Scope)),
			zap.Int64("count", exceeded.Count),
			zap.Int64("max", exceeded.Config.Max),
			zap.Duration("window", exceeded.Config.Window),
			zap.String("clientIp", extractClientIP(ctx)),
		)
	}

	_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)
}

// clientKey hashes IP and User-Agent together so limits follow the
// client, not just the address.
func clientKey(ctx huma.Context) string {
	ip := extractClientIP(ctx)
	ua := ctx.Header("User-Agent")

	hash := sha256.Sum256([]byte(ip + "|" + ua))

	return hex.EncodeToString(hash[:])
}

func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
