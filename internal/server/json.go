package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/florianilch/stepwise/internal/assistants"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeJSONError writes an error body in the service's format.
// When status is zero it is derived from the error type.
func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, errResp *assistants.ErrorResponse) {
	if status == 0 {
		switch errResp.Err.Type {
		case assistants.ErrorTypeInvalidRequest:
			status = http.StatusBadRequest
		case assistants.ErrorTypeAuthentication:
			status = http.StatusUnauthorized
		default:
			status = http.StatusInternalServerError
		}
	}

	writeJSON(ctx, w, errResp, status)
}

// newErrorResponse builds an error body. param names the offending request
// parameter, if any.
func newErrorResponse(errType, message string, param string) *assistants.ErrorResponse {
	resp := &assistants.ErrorResponse{
		Err: assistants.APIErrorObject{
			Message: message,
			Type:    errType,
		},
	}
	if param != "" {
		resp.Err.Param = &param
	}
	return resp
}
