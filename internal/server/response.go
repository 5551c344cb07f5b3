package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string                     `json:"code"`
	Message string                     `json:"message"`
	Details []docforge.ValidationIssue `json:"details,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Error codes carried in APIError.Code.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeTemplateLoad  = "TEMPLATE_LOAD_ERROR"
	CodeSerialization = "SERIALIZATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
	CodeTooLarge      = "PAYLOAD_TOO_LARGE"
)

func meta(total int) *APIMeta {
	return &APIMeta{Total: total, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	respondWithMeta(w, status, data, meta(0))
}

func respondWithMeta(w http.ResponseWriter, status int, data interface{}, m *APIMeta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data, Meta: m})
}

func respondError(w http.ResponseWriter, status int, apiErr *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: false, Error: apiErr, Meta: meta(0)})
}

// statusFor maps library errors to HTTP status codes and error codes.
func statusFor(err error) (int, *APIError) {
	var (
		verr    *docforge.ValidationError
		nfErr   *docforge.NotFoundError
		tplErr  *docforge.TemplateLoadError
		serErr  *docforge.SerializationError
		maxErr  *http.MaxBytesError
		message = err.Error()
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, &APIError{Code: CodeValidation, Message: message, Details: verr.Issues}
	case errors.As(err, &nfErr):
		return http.StatusNotFound, &APIError{Code: CodeNotFound, Message: message}
	case errors.As(err, &tplErr):
		return http.StatusUnprocessableEntity, &APIError{Code: CodeTemplateLoad, Message: message}
	case errors.As(err, &serErr):
		return http.StatusInternalServerError, &APIError{Code: CodeSerialization, Message: message}
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, &APIError{Code: CodeTooLarge,
			Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
	default:
		return http.StatusInternalServerError, &APIError{Code: CodeInternal, Message: "internal error"}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := statusFor(err)
	ev := s.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.log.Error()
	}
	ev.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	respondError(w, status, apiErr)
}

// decodeJSON reads a JSON body of at most MaxUploadBytes into v. Malformed bodies are
// validation errors.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return docforge.NewValidationError("body", "request body is empty")
		}
		return docforge.NewValidationError("body", err.Error())
	}
	return nil
}
