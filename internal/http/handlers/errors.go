package handlers

import (
	"errors"
	"net/http"

	"github.com/curately/groundtruth-backend/internal/codec"
	"github.com/curately/groundtruth-backend/internal/dataset"
	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/store"
)

// mapError translates service errors into HTTP status and error codes.
func mapError(err error) (int, string) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, "validation_failed"
	}
	var dErr *codec.DecodeError
	if errors.As(err, &dErr) {
		return http.StatusBadRequest, "decode_failed"
	}
	var gErr *dataset.GuardError
	if errors.As(err, &gErr) {
		return http.StatusConflict, "import_blocked"
	}
	var nfErr *store.NotFoundError
	if errors.As(err, &nfErr) {
		return http.StatusNotFound, "not_found"
	}
	var wErr *store.WriteError
	if errors.As(err, &wErr) {
		return http.StatusBadGateway, "storage_write_failed"
	}
	if errors.Is(err, store.ErrNameTaken) {
		return http.StatusConflict, "name_taken"
	}
	if errors.Is(err, dataset.ErrNotNamed) {
		return http.StatusBadRequest, "not_supported"
	}
	return http.StatusInternalServerError, "internal_error"
}
