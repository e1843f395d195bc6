// Package container wires the application together. Each package
// function registers one concern's providers on the injector; binaries
// compose the packages they need.
package container

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/linktrace/internal/analytics"
	analyticsstore "github.com/serroba/linktrace/internal/analytics/store"
	"github.com/serroba/linktrace/internal/geo"
	"github.com/serroba/linktrace/internal/handlers"
	"github.com/serroba/linktrace/internal/messaging"
	"github.com/serroba/linktrace/internal/middleware"
	"github.com/serroba/linktrace/internal/payload"
	"github.com/serroba/linktrace/internal/ratelimit"
	"github.com/serroba/linktrace/internal/session"
	"github.com/serroba/linktrace/internal/store"
	"github.com/serroba/linktrace/internal/tracking"
	"go.uber.org/zap"
)

// LoggerPackage provides the zap logger. LogFormat "json" selects the
// production config, anything else the development console encoder.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool and the record store built on it.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		return pgxpool.New(context.Background(), options.DatabaseURL)
	})

	do.Provide(injector, func(i *do.Injector) (*store.PostgresStore, error) {
		pool := do.MustInvoke[*pgxpool.Pool](i)

		return store.NewPostgresStore(pool), nil
	})
}

// RepositoryPackage provides the domain repository interfaces. Links are
// served through the redis cache decorator, clicks and users go straight
// to postgres, sessions live in redis.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (tracking.LinkRepository, error) {
		options := do.MustInvoke[*Options](i)
		pg := do.MustInvoke[*store.PostgresStore](i)
		client := do.MustInvoke[*redis.Client](i)
		ttl := time.Duration(options.CacheTTLSeconds) * time.Second

		return store.NewRedisLinkCache(pg, client, ttl), nil
	})

	do.Provide(injector, func(i *do.Injector) (tracking.ClickRepository, error) {
		return do.MustInvoke[*store.PostgresStore](i), nil
	})

	do.Provide(injector, func(i *do.Injector) (session.UserRepository, error) {
		return do.MustInvoke[*store.PostgresStore](i), nil
	})

	do.Provide(injector, func(i *do.Injector) (session.Store, error) {
		client := do.MustInvoke[*redis.Client](i)

		return session.NewRedisStore(client), nil
	})
}

// GeoPackage provides the IP resolver and the reverse geocoder.
func GeoPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (geo.Resolver, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return geo.NewIPAPIResolver(options.GeoAPIURL, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (geo.ReverseGeocoder, error) {
		options := do.MustInvoke[*Options](i)

		return geo.NewBigDataCloudGeocoder(options.ReverseGeoAPIURL), nil
	})
}

// TrackingPackage provides the payload cipher and the click lifecycle
// components.
func TrackingPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*payload.Cipher, error) {
		options := do.MustInvoke[*Options](i)

		return payload.NewCipher(options.TelemetrySecret)
	})

	do.Provide(injector, func(i *do.Injector) (*tracking.Recorder, error) {
		clicks := do.MustInvoke[tracking.ClickRepository](i)
		resolver := do.MustInvoke[geo.Resolver](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return tracking.NewRecorder(clicks, resolver, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*tracking.Reconciler, error) {
		links := do.MustInvoke[tracking.LinkRepository](i)
		clicks := do.MustInvoke[tracking.ClickRepository](i)

		return tracking.NewReconciler(links, clicks), nil
	})
}

// RateLimitPackage provides the policy limiter backed by redis and the
// operation-aware scope resolver.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		client := do.MustInvoke[*redis.Client](i)

		return ratelimit.NewPolicyLimiter(store.NewRateLimitRedisStore(client), ratelimit.DefaultPolicy()), nil
	})

	do.Provide(injector, func(i *do.Injector) (ratelimit.ScopeResolver, error) {
		return ratelimit.NewOperationScopeResolver(), nil
	})
}

// PublisherGroupPackage provides the redis streams publisher shared by
// the HTTP handlers.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the consumer group for the enrichment
// binary: the click event sink plus the location enricher.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)
		clicks := do.MustInvoke[tracking.ClickRepository](i)
		geocoder := do.MustInvoke[geo.ReverseGeocoder](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "enricher",
		}, watermill.NewStdLogger(false, false))
		if err != nil {
			return nil, err
		}

		sink := analyticsstore.NewNoop(logger)
		enricher := analytics.NewEnricher(geocoder, clicks, logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicClickRecorded,
			sink.SaveClickRecorded,
			logger,
		))
		group.Add(messaging.NewConsumer(
			subscriber,
			analytics.TopicLocationCorrected,
			func(ctx context.Context, event *analytics.LocationCorrectedEvent) error {
				_ = sink.SaveLocationCorrected(ctx, event)

				return enricher.HandleLocationCorrected(ctx, event)
			},
			logger,
		))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with all routes and
// middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("LinkTrace", "1.0.0"))

		limiter := do.MustInvoke[*ratelimit.PolicyLimiter](i)
		resolver := do.MustInvoke[ratelimit.ScopeResolver](i)

		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.PolicyRateLimiter(api, limiter, resolver, logger),
		)

		links := do.MustInvoke[tracking.LinkRepository](i)
		clicks := do.MustInvoke[tracking.ClickRepository](i)
		sessions := do.MustInvoke[session.Store](i)
		users := do.MustInvoke[session.UserRepository](i)
		cipher := do.MustInvoke[*payload.Cipher](i)
		recorder := do.MustInvoke[*tracking.Recorder](i)
		reconciler := do.MustInvoke[*tracking.Reconciler](i)
		pg := do.MustInvoke[*store.PostgresStore](i)
		redisClient := do.MustInvoke[*redis.Client](i)
		publishers := do.MustInvoke[*messaging.PublisherGroup](i)

		publishClick := messaging.NewPublishFunc[analytics.ClickRecordedEvent](
			publishers.Publisher(), analytics.TopicClickRecorded)
		publishCorrected := messaging.NewPublishFunc[analytics.LocationCorrectedEvent](
			publishers.Publisher(), analytics.TopicLocationCorrected)

		generate, err := nanoid.Standard(options.SlugLength)
		if err != nil {
			return nil, err
		}

		handlers.RegisterRoutes(api,
			handlers.NewRedirectHandler(links, recorder, cipher, publishClick, logger),
			handlers.NewTelemetryHandler(cipher, reconciler, recorder, publishCorrected, logger),
			handlers.NewLinkHandler(links, clicks, sessions, generate, options.PublicBaseURL(), logger),
			handlers.NewAuthHandler(users, sessions, logger),
			handlers.NewHealthHandler(redisClient, pg, logger),
		)

		return api, nil
	})
}
