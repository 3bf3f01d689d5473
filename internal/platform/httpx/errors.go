package httpx

import (
	"errors"
	"net/http"

	"github.com/meridianhq/meridian/internal/shared"
)

// RespondError maps domain errors to HTTP responses. Storage and
// notification causes stay server-side; the caller only sees the category.
func RespondError(w http.ResponseWriter, err error, context string) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, shared.ErrInvalidCredentials.Error(), context)
	case errors.Is(err, shared.ErrUnauthorized):
		Error(w, http.StatusUnauthorized, shared.ErrUnauthorized.Error(), context)
	case errors.Is(err, shared.ErrForbidden):
		Error(w, http.StatusForbidden, shared.ErrForbidden.Error(), context)
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, shared.ErrNotFound.Error(), context)
	case errors.Is(err, shared.ErrDuplicateAccount):
		Error(w, http.StatusConflict, shared.ErrDuplicateAccount.Error(), context)
	case errors.Is(err, shared.ErrRateLimited):
		Error(w, http.StatusTooManyRequests, shared.ErrRateLimited.Error(), context)
	case errors.Is(err, shared.ErrNotification):
		Error(w, http.StatusServiceUnavailable, shared.ErrNotification.Error(), context)
	case shared.IsStorageError(err):
		Error(w, http.StatusInternalServerError, "storage failure", context)
	default:
		Error(w, http.StatusInternalServerError, "internal error", context)
	}
}
