package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
)

const (
	defaultLimit = 20
	maxBodyBytes = 1 << 20
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status its kind maps to.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	kind := domain.KindOf(err)
	status := mapDomainError(err)

	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	if kind == domain.KindConcurrencyConflict {
		w.Header().Set("Retry-After", "1")
	}

	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Kind:    string(kind),
		Message: details,
	})
}

// mapDomainError maps domain error kinds to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindInsufficientResource:
		return http.StatusUnprocessableEntity
	case domain.KindIllegalState, domain.KindConcurrencyConflict:
		return http.StatusConflict
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes a size-limited request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}

	return true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset, _ = domain.ValidatePagination(parseIntQuery(r, "limit", defaultLimit), parseIntQuery(r, "offset", 0))
	return limit, offset
}

func page[T any](items []T, limit, offset int) dto.ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return dto.ListResponse[T]{Items: items, Limit: limit, Offset: offset}
}

// callerOrReject returns the request's caller, answering 401 when the
// identity middleware found none.
func callerOrReject(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := domain.CallerFromContext(r.Context())
	if !ok || caller.AccountID == "" {
		writeError(w, http.StatusUnauthorized, "missing caller identity", "")
		return domain.Caller{}, false
	}
	return caller, true
}
