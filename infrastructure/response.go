package infrastructure

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

// WriteError maps err onto an HTTP status and a client-safe body. Internal
// errors are logged and replaced with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusBadRequest, map[string]string{ve.Field: ve.Message})
	case errors.Is(err, ErrInvalidInput):
		WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	case errors.Is(err, ErrUnauthenticated):
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": ErrUnauthenticated.Error()})
	case errors.Is(err, ErrForbidden):
		WriteJSON(w, http.StatusForbidden, map[string]string{"detail": "forbidden"})
	case errors.Is(err, ErrNotFound):
		WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "not found"})
	case errors.Is(err, ErrConflict), errors.Is(err, ErrUserAlreadyExists):
		WriteJSON(w, http.StatusConflict, map[string]string{"detail": err.Error()})
	default:
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"detail": ErrInternalServer.Error()})
	}
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewValidationError("detail", "malformed JSON body")
	}
	return nil
}

// PathID parses a positive integer route variable.
func PathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, ErrNotFound
	}
	return uint(id), nil
}
