package server

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The stub must be usable as base URL of an off-the-shelf SDK client.
func TestCompatibility_GoOpenAI(t *testing.T) {
	ts := newTestServer(t, nil, WithAPIKey(testKey))

	config := openai.DefaultConfig(testKey)
	config.BaseURL = ts.URL + "/v1"
	client := openai.NewClientWithConfig(config)
	ctx := context.Background()

	t.Run("list assistants", func(t *testing.T) {
		limit, order := 2, "asc"
		list, err := client.ListAssistants(ctx, &limit, &order, nil, nil)
		require.NoError(t, err)

		require.Len(t, list.Assistants, 2)
		assert.Equal(t, "asst_math", list.Assistants[0].ID)
		assert.Equal(t, "asst_search", list.Assistants[1].ID)
		assert.True(t, list.HasMore)
		require.NotNil(t, list.LastID)
		assert.Equal(t, "asst_search", *list.LastID)
	})

	t.Run("list run steps", func(t *testing.T) {
		list, err := client.ListRunSteps(ctx, "thread_1", "run_1", openai.Pagination{})
		require.NoError(t, err)

		require.Len(t, list.RunSteps, 4)
		assert.Equal(t, "step_4", list.FirstID)
		assert.Equal(t, "step_1", list.LastID)
		assert.False(t, list.HasMore)
	})

	t.Run("unknown assistant", func(t *testing.T) {
		_, err := client.RetrieveAssistant(ctx, "asst_missing")

		var apiErr *openai.APIError
		require.True(t, errors.As(err, &apiErr), "expected *openai.APIError, got %v", err)
		assert.Equal(t, 404, apiErr.HTTPStatusCode)
		assert.Equal(t, "invalid_request_error", apiErr.Type)
	})
}
