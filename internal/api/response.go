package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

const (
	errCodeInvalidRequest = "invalid_request"
	errCodeValidation     = "validation_failed"
	errCodeInternal       = "internal_error"
	errCodeUnavailable    = "service_unavailable"
	errCodeTimeout        = "timeout"
	errCodeNotFound       = "not_found"
	errCodeFetchFailed    = "fetch_failed"
	errCodePersistence    = "persistence_failed"
)

// Error represents a normalized API error response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the common response wrapper. RequestID echoes the
// correlation id assigned by the router middleware. Persisted is always
// emitted: false means "computed but not stored" and must be visible.
type Envelope struct {
	Success         bool   `json:"success"`
	RequestID       string `json:"request_id,omitempty"`
	Persisted       bool   `json:"persisted"`
	PersistError    string `json:"persist_error,omitempty"`
	AdvisorDegraded bool   `json:"advisor_degraded,omitempty"`
	Data            any    `json:"data,omitempty"`
	Error           *Error `json:"error,omitempty"`
}

// decodeJSONBody decodes a request body with strict unknown-field and
// trailing-token checks.
func decodeJSONBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}

	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return ErrMultipleJSONObjects
	}

	return nil
}

// writeJSON writes a JSON response and logs serialization failures.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to encode JSON response")
	}
}

// respondError writes a normalized error envelope.
func respondError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, Envelope{
		Success:   false,
		RequestID: requestID,
		Error:     &Error{Code: code, Message: message},
	})
}
