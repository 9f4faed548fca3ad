package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/stepwise/internal/assistants"
	"github.com/florianilch/stepwise/internal/fixtures"
)

const testKey = "sk-test"

func newTestServer(t *testing.T, catalog Catalog, opts ...Option) *httptest.Server {
	t.Helper()

	if catalog == nil {
		store, err := fixtures.Load("../fixtures/testdata")
		require.NoError(t, err)
		catalog = store
	}

	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	ts := httptest.NewServer(New(catalog, opts...).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// get performs a request with the beta header and, unless key is empty, bearer auth.
func get(t *testing.T, ts *httptest.Server, path, key string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(BetaHeader, "assistants=v2")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func pageIDs[T assistants.Item](page assistants.List[T]) []string {
	ids := []string{}
	for _, item := range page.Data {
		ids = append(ids, item.Cursor())
	}
	return ids
}

func TestListAssistants(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts, "/v1/assistants", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	page := decodeBody[assistants.List[assistants.Assistant]](t, resp)
	assert.Equal(t, assistants.ListObject, page.Object)
	assert.Equal(t, []string{"asst_weather", "asst_search", "asst_math"}, pageIDs(page))
	assert.False(t, page.HasMore)
}

func TestListAssistants_Pagination(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts, "/v1/assistants?order=asc&limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[assistants.List[assistants.Assistant]](t, resp)
	assert.Equal(t, []string{"asst_math", "asst_search"}, pageIDs(page))
	require.True(t, page.HasMore)

	resp = get(t, ts, "/v1/assistants?order=asc&limit=2&after="+*page.LastID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decodeBody[assistants.List[assistants.Assistant]](t, resp)
	assert.Equal(t, []string{"asst_weather"}, pageIDs(page))
	assert.False(t, page.HasMore)
}

func TestListAssistants_InvalidParams(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name      string
		query     string
		wantParam string
	}{
		{name: "limit too large", query: "limit=500", wantParam: "limit"},
		{name: "limit not a number", query: "limit=ten", wantParam: "limit"},
		{name: "unknown order", query: "order=random", wantParam: "order"},
		{name: "unknown cursor", query: "after=asst_missing", wantParam: "after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, "/v1/assistants?"+tt.query, "")
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			body := decodeBody[assistants.ErrorResponse](t, resp)
			assert.Equal(t, assistants.ErrorTypeInvalidRequest, body.Err.Type)
			assert.NotEmpty(t, body.Err.Message)
			assert.NotContains(t, body.Err.Message, "Key: ")
			require.NotNil(t, body.Err.Param)
			assert.Equal(t, tt.wantParam, *body.Err.Param)
		})
	}
}

func TestGetAssistant(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts, "/v1/assistants/asst_weather", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assistant := decodeBody[assistants.Assistant](t, resp)
	assert.Equal(t, "asst_weather", assistant.ID)
	require.Len(t, assistant.Tools, 1)
	assert.Equal(t, assistants.ToolTypeFunction, assistant.Tools[0].Type())

	resp = get(t, ts, "/v1/assistants/asst_missing", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decodeBody[assistants.ErrorResponse](t, resp)
	assert.Equal(t, assistants.ErrorTypeInvalidRequest, body.Err.Type)
	assert.Equal(t, "No assistant found with id 'asst_missing'.", body.Err.Message)
}

func TestRunSteps(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts, "/v1/threads/thread_1/runs/run_1/steps?limit=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[assistants.List[assistants.RunStep]](t, resp)
	assert.Equal(t, []string{"step_4", "step_3", "step_2"}, pageIDs(page))
	assert.True(t, page.HasMore)

	resp = get(t, ts, "/v1/threads/thread_1/runs/run_1/steps/step_3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	step := decodeBody[assistants.RunStep](t, resp)
	assert.Equal(t, &assistants.MessageCreationDetails{MessageID: "msg_1"}, step.StepDetails)

	resp = get(t, ts, "/v1/threads/thread_2/runs/run_1/steps/step_3", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRequireBeta(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/v1/assistants")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[assistants.ErrorResponse](t, resp)
	assert.Contains(t, body.Err.Message, "OpenAI-Beta")
}

func TestBearerAuth(t *testing.T) {
	ts := newTestServer(t, nil, WithAPIKey(testKey))

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{name: "missing key", wantStatus: http.StatusUnauthorized},
		{name: "wrong key", key: "sk-wrong", wantStatus: http.StatusUnauthorized},
		{name: "valid key", key: testKey, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts, "/v1/assistants", tt.key)
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusUnauthorized {
				body := decodeBody[assistants.ErrorResponse](t, resp)
				assert.Equal(t, assistants.ErrorTypeAuthentication, body.Err.Type)
			}
		})
	}

	t.Run("health needs no key", func(t *testing.T) {
		resp, err := ts.Client().Get(ts.URL + "/health/liveness")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

type readiness bool

func (r readiness) IsReady() bool { return bool(r) }

func TestReadiness(t *testing.T) {
	for _, ready := range []bool{true, false} {
		ts := newTestServer(t, nil, WithReadiness(readiness(ready)))

		resp, err := ts.Client().Get(ts.URL + "/health/readiness")
		require.NoError(t, err)
		_ = resp.Body.Close()

		want := http.StatusServiceUnavailable
		if ready {
			want = http.StatusOK
		}
		assert.Equal(t, want, resp.StatusCode)
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	}
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := get(t, ts, "/v1/assistants", "")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	get(t, ts, "/v1/assistants", "")

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "stepwise_server_requests_total")
	assert.Contains(t, string(body), `route="list_assistants"`)
}

// panicCatalog fails every call by panicking.
type panicCatalog struct{ Catalog }

func (panicCatalog) ListAssistants(assistants.ListParams) (*assistants.List[assistants.Assistant], error) {
	panic("boom")
}

func TestRecovery(t *testing.T) {
	ts := newTestServer(t, panicCatalog{})

	resp := get(t, ts, "/v1/assistants", "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body := decodeBody[assistants.ErrorResponse](t, resp)
	assert.Equal(t, assistants.ErrorTypeServer, body.Err.Type)
}
