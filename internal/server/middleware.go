package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/florianilch/stepwise/internal/assistants"
)

// BetaHeader is the header that opts a request into the assistants API version.
const BetaHeader = "OpenAI-Beta"

// Recovery recovers from panics in HTTP handlers and answers with a server_error body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(r.Context(), "handler panicked", "panic", rec)
				writeJSONError(r.Context(), w, http.StatusInternalServerError,
					newErrorResponse(assistants.ErrorTypeServer, "The server had an error while processing your request.", ""))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// BearerAuth rejects requests whose Authorization header does not carry key.
// An empty key disables the check.
func BearerAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeJSONError(r.Context(), w, http.StatusUnauthorized, newErrorResponse(
					assistants.ErrorTypeAuthentication,
					"You didn't provide an API key. Provide it in the Authorization header using Bearer auth.",
					""))
				return
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
				writeJSONError(r.Context(), w, http.StatusUnauthorized, newErrorResponse(
					assistants.ErrorTypeAuthentication, "Incorrect API key provided.", ""))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireBeta rejects requests that do not opt into the assistants API with
// an "OpenAI-Beta: assistants=<version>" header.
func RequireBeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get(BetaHeader), "assistants=") {
			writeJSONError(r.Context(), w, http.StatusBadRequest, newErrorResponse(
				assistants.ErrorTypeInvalidRequest,
				"You must provide the 'OpenAI-Beta' header to access the Assistants API. Please try again by setting the header 'OpenAI-Beta: assistants=v2'.",
				""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// applyMiddlewares applies middlewares to a handler in the order they appear.
// The first middleware in the slice is the outermost (executes first).
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
