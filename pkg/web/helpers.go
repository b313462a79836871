// Package web holds HTTP helpers shared by the transport layer.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"statusCode"`
}

func RespondJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	// Handle nil payload
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondError writes the error envelope with the given status, error type and message.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, errType, message string) {
	RespondJSON(w, logger, status, ErrorBody{
		Error: ErrorDetail{
			Message:    message,
			Type:       errType,
			StatusCode: status,
		},
	})
}
