package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/florianilch/stepwise/internal/assistants"
	"github.com/florianilch/stepwise/internal/fixtures"
	"github.com/florianilch/stepwise/internal/observability/middleware"
)

// Catalog is the read model served by the server. *fixtures.Store implements it.
type Catalog interface {
	ListAssistants(params assistants.ListParams) (*assistants.List[assistants.Assistant], error)
	GetAssistant(id string) (assistants.Assistant, error)
	ListRunSteps(threadID, runID string, params assistants.ListParams) (*assistants.List[assistants.RunStep], error)
	GetRunStep(threadID, runID, stepID string) (assistants.RunStep, error)
}

// Compile-time check that the fixture store can back the server
var _ Catalog = (*fixtures.Store)(nil)

// listAssistantsHandler serves GET /v1/assistants.
func listAssistantsHandler(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, ok := listParams(ctx, w, r)
		if !ok {
			return
		}

		page, err := catalog.ListAssistants(params)
		if err != nil {
			writeCatalogError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, page, http.StatusOK)
	}
}

// getAssistantHandler serves GET /v1/assistants/{assistant_id}.
func getAssistantHandler(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.PathValue("assistant_id")
		middleware.SetLogAttrs(ctx, slog.String("assistant_id", id))

		assistant, err := catalog.GetAssistant(id)
		if err != nil {
			if errors.Is(err, fixtures.ErrNotFound) {
				writeJSONError(ctx, w, http.StatusNotFound, newErrorResponse(
					assistants.ErrorTypeInvalidRequest, fmt.Sprintf("No assistant found with id '%s'.", id), ""))
				return
			}
			writeCatalogError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, assistant, http.StatusOK)
	}
}

// listRunStepsHandler serves GET /v1/threads/{thread_id}/runs/{run_id}/steps.
func listRunStepsHandler(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		threadID, runID := r.PathValue("thread_id"), r.PathValue("run_id")
		middleware.SetLogAttrs(ctx, slog.String("thread_id", threadID), slog.String("run_id", runID))

		params, ok := listParams(ctx, w, r)
		if !ok {
			return
		}

		page, err := catalog.ListRunSteps(threadID, runID, params)
		if err != nil {
			writeCatalogError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, page, http.StatusOK)
	}
}

// getRunStepHandler serves GET /v1/threads/{thread_id}/runs/{run_id}/steps/{step_id}.
func getRunStepHandler(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		threadID, runID, stepID := r.PathValue("thread_id"), r.PathValue("run_id"), r.PathValue("step_id")
		middleware.SetLogAttrs(ctx, slog.String("thread_id", threadID), slog.String("run_id", runID))

		step, err := catalog.GetRunStep(threadID, runID, stepID)
		if err != nil {
			if errors.Is(err, fixtures.ErrNotFound) {
				writeJSONError(ctx, w, http.StatusNotFound, newErrorResponse(
					assistants.ErrorTypeInvalidRequest, fmt.Sprintf("No run step found with id '%s'.", stepID), ""))
				return
			}
			writeCatalogError(ctx, w, err)
			return
		}
		writeJSON(ctx, w, step, http.StatusOK)
	}
}

// listParams binds the cursor parameters, answering 400 when they are invalid.
func listParams(ctx context.Context, w http.ResponseWriter, r *http.Request) (assistants.ListParams, bool) {
	params, err := assistants.ParseListParams(r.URL.Query())
	if err != nil {
		slog.DebugContext(ctx, "invalid list parameters", "error", err)
		var param string
		var paramErr *assistants.ParamError
		if errors.As(err, &paramErr) {
			param = paramErr.Param
		}
		writeJSONError(ctx, w, http.StatusBadRequest, newErrorResponse(
			assistants.ErrorTypeInvalidRequest, err.Error(), param))
		return assistants.ListParams{}, false
	}
	return params, true
}

// writeCatalogError maps catalog errors to error bodies.
func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fixtures.ErrCursorNotFound):
		writeJSONError(ctx, w, http.StatusBadRequest, newErrorResponse(
			assistants.ErrorTypeInvalidRequest, err.Error(), cursorParam(err)))
	case errors.Is(err, fixtures.ErrNotFound):
		writeJSONError(ctx, w, http.StatusNotFound, newErrorResponse(
			assistants.ErrorTypeInvalidRequest, err.Error(), ""))
	default:
		slog.ErrorContext(ctx, "catalog request failed", "error", err)
		writeJSONError(ctx, w, http.StatusInternalServerError, newErrorResponse(
			assistants.ErrorTypeServer, "The server had an error while processing your request.", ""))
	}
}

// cursorParam reports which cursor parameter a pagination error refers to.
func cursorParam(err error) string {
	var cursorErr *fixtures.CursorError
	if errors.As(err, &cursorErr) {
		return cursorErr.Param
	}
	return ""
}
