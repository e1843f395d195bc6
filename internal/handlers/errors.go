package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/linktrace/internal/store"
)

// storeError translates classified record store failures into API
// errors. Permission and schema problems get distinct messages so a
// misconfigured deployment is diagnosable from the response alone; the
// postgres error code travels along as an error detail.
func storeError(err error) error {
	detail := &huma.ErrorDetail{
		Message:  err.Error(),
		Location: "store",
		Value:    store.Code(err),
	}

	switch {
	case errors.Is(err, store.ErrPermissionDenied):
		return huma.Error500InternalServerError("permission denied by record store", detail)
	case errors.Is(err, store.ErrSchemaMissing):
		return huma.Error500InternalServerError("record store schema missing", detail)
	default:
		return huma.Error500InternalServerError("record store failure", detail)
	}
}
