package handlers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/geo"
	"github.com/serroba/linktrace/internal/handlers"
	"github.com/serroba/linktrace/internal/messaging"
	"github.com/serroba/linktrace/internal/payload"
	"github.com/stretchr/testify/require"
)

const testSecret = "1d2359a2556c5e2ebd17fc49bf51c43106f1172f44a4a257517e389fc3255ff1"

// noopPublish returns a publish function that always succeeds.
func noopPublish[T any]() messaging.Publish[T] {
	return func(_ *T) error { return nil }
}

// capturePublish returns a publish function that records published events.
func capturePublish[T any](events *[]T) messaging.Publish[T] {
	return func(event *T) error {
		*events = append(*events, *event)

		return nil
	}
}

// errorPublish returns a publish function that always fails.
func errorPublish[T any](err error) messaging.Publish[T] {
	return func(_ *T) error { return err }
}

// fixedResolver returns the same estimate for every IP.
type fixedResolver struct {
	estimate geo.LocationEstimate
}

func (f *fixedResolver) Resolve(_ context.Context, _ string) geo.LocationEstimate {
	return f.estimate
}

func newTestCipher(t *testing.T) *payload.Cipher {
	t.Helper()

	c, err := payload.NewCipher(testSecret)
	require.NoError(t, err)

	return c
}

func metaContext(ip, userAgent, referrer string) context.Context {
	return handlers.ContextWithRequestMeta(context.Background(), handlers.RequestMeta{
		ClientIP:  ip,
		UserAgent: userAgent,
		Referrer:  referrer,
	})
}

// statusOf extracts the HTTP status from a handler error.
func statusOf(err error) int {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se.GetStatus()
	}

	return 0
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func int64Ptr(v int64) *int64 { return &v }
