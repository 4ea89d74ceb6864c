package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"botonic-backend/internal/models"
	"botonic-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	resp := errorResp(code, message, r)
	resp.Error.Fields = fields
	return resp
}

// ServiceErrorStatus maps a service error to its HTTP status and error code.
func ServiceErrorStatus(err error) (int, string) {
	var (
		validation   *services.ValidationError
		unauthorized *services.UnauthorizedError
		provider     *services.ProviderError
		payments     *services.PaymentsError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.As(err, &provider):
		return http.StatusInternalServerError, "AI_ERROR"
	case errors.Is(err, services.ErrPaymentsNotConfigured):
		return http.StatusInternalServerError, "PAYMENTS_NOT_CONFIGURED"
	case errors.As(err, &payments):
		return http.StatusInternalServerError, "PAYMENTS_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := ServiceErrorStatus(err)

	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, status, errorRespWithFields(code, validation.Message, validation.Fields, r))
	case code == "INTERNAL_ERROR":
		log.Printf("unexpected error on %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, errorResp(code, "An unexpected error occurred", r))
	default:
		writeJSON(w, status, errorResp(code, err.Error(), r))
	}
}
