package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"yamo/treasury/internal/apperror"
)

// ErrBadRequest marks malformed query parameters.
var ErrBadRequest = errors.New("bad request")

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type      string `json:"type,omitempty"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Title:     title,
		Status:    status,
		Detail:    detail,
		RequestID: w.Header().Get(requestIDHeader),
	})
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var (
		cfgErr     *apperror.ConfigError
		backendErr *apperror.BackendError
		engineErr  *apperror.EngineError
	)
	switch {
	case errors.Is(err, apperror.ErrUnknownSection):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.As(err, &cfgErr):
		Problem(w, http.StatusBadRequest, "Invalid Configuration", err.Error())
	case errors.As(err, &backendErr):
		Problem(w, http.StatusBadGateway, "Backend Unavailable", err.Error())
	case errors.As(err, &engineErr):
		Problem(w, http.StatusInternalServerError, "Filter Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
