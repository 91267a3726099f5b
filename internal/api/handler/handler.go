// Package handler contains the HTTP handlers. Each handler declares the
// narrow service interface it depends on and maps service errors onto the
// API error envelope.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pkosov/masterdesk/internal/api/response"
	"github.com/pkosov/masterdesk/internal/dispatch"
	"github.com/pkosov/masterdesk/internal/store"
)

// serviceError translates dispatch and store errors into HTTP responses.
// Anything unrecognized is a 500 with no internals leaked.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatch.ErrValidation):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, store.ErrConflict):
		response.Error(w, http.StatusConflict, "CONFLICT", "The requested change conflicts with the current state", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "DUPLICATE", "A resource with these attributes already exists", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

// pathID extracts and parses a UUID path parameter. On failure it writes the
// 400 itself and reports ok=false.
func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", param+" must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
