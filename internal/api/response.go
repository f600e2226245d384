package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brandforge-ai/brandforge/internal/domain"
)

// SuccessResponse is the envelope for every 2xx body.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse is the envelope for every error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// Success writes data inside the success envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, SuccessResponse{Data: data})
}

// Error writes message inside the error envelope.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps the error taxonomy onto status codes.
// Upstream collaborator failures surface as 502 so callers can tell
// them apart from our own faults.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodePrecondition:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeExternalService, domain.ErrCodeMalformedOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError maps err to a status and writes the error envelope.
func HandleError(w http.ResponseWriter, err error) {
	Error(w, DomainErrorToHTTP(err), err.Error())
}
