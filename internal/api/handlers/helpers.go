// Handler helpers: JSON writing, pagination and domain error mapping.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/matiasleandrokruk/dissociated/internal/domain/corpus"
	"github.com/matiasleandrokruk/dissociated/internal/domain/generation"
	"github.com/matiasleandrokruk/dissociated/internal/domain/press"
	"github.com/matiasleandrokruk/dissociated/internal/infra/logging"
)

// paginationParams holds parsed limit and offset values.
type paginationParams struct {
	Limit  int
	Offset int
}

const (
	defaultPaginationLimit = 25
	maxPaginationLimit     = 100

	// maxBodyBytes bounds request bodies; corpora are whole texts so this is generous.
	maxBodyBytes = 8 << 20
)

// parsePaginationParams extracts limit/offset from the query string.
// Invalid values fall back to the defaults, limit is capped at maxPaginationLimit.
func parsePaginationParams(r *http.Request) paginationParams {
	limit := defaultPaginationLimit
	offset := 0

	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim > 0 {
		limit = min(lim, maxPaginationLimit)
	}
	if off, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && off >= 0 {
		offset = off
	}

	return paginationParams{Limit: limit, Offset: offset}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// statusForError maps domain errors to HTTP status codes.
//
//   - 400: invalid parameters or request shape
//   - 404: unknown corpus
//   - 409: duplicate corpus name, dead end in strict mode
//   - 422: input without any words
//   - 500: anything else
func statusForError(err error) int {
	switch {
	case errors.Is(err, press.ErrInvalidChunkSize),
		errors.Is(err, press.ErrInvalidChunkCount),
		errors.Is(err, press.ErrInvalidSeedIndex),
		errors.Is(err, generation.ErrTooManyChunks),
		errors.Is(err, generation.ErrNoInput),
		errors.Is(err, generation.ErrAmbiguous),
		errors.Is(err, corpus.ErrNameRequired),
		errors.Is(err, corpus.ErrNoSources):
		return http.StatusBadRequest
	case errors.Is(err, press.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, corpus.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, press.ErrNoMatch), errors.Is(err, corpus.ErrDuplicateName):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with its mapped status. 500s hide the cause
// from the client and log it instead.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
