// Package client retrieves assistants and run steps from the service.
//
// Lists are exposed as assistants.PageFetcher values so callers walk them with
// assistants.Pages or assistants.All:
//
//	c, _ := client.New(baseURL, client.WithAPIKey(key))
//	for step, err := range assistants.All(ctx, c.RunStepsFetcher(threadID, runID), assistants.ListParams{}) {
//		...
//	}
//
// The client does not retry.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/florianilch/stepwise/internal/assistants"
)

// DefaultBaseURL is where "stepwise serve" listens with its default settings.
const DefaultBaseURL = "http://127.0.0.1:4100/v1"

// BetaHeaderValue opts requests into the assistants API version the codec models.
const BetaHeaderValue = "assistants=v2"

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 1 << 20

// Client calls the read endpoints of the assistants API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

type options struct {
	apiKey    string
	transport http.RoundTripper
	timeout   time.Duration
}

// Option configures a Client.
type Option func(*options)

// WithAPIKey authenticates requests with a bearer key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithTransport sets the base transport. Defaults to http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New creates a client for the service at baseURL, e.g. "https://api.openai.com/v1".
// An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	o := options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	transport := o.transport
	if o.apiKey != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.apiKey, TokenType: "Bearer"}),
			Base:   o.transport,
		}
	}

	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   o.timeout,
		},
	}, nil
}

// ListAssistants fetches one page of assistants.
func (c *Client) ListAssistants(ctx context.Context, params assistants.ListParams) (*assistants.List[assistants.Assistant], error) {
	var page assistants.List[assistants.Assistant]
	if err := c.get(ctx, []string{"assistants"}, params, &page); err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}
	return &page, nil
}

// GetAssistant fetches a single assistant.
func (c *Client) GetAssistant(ctx context.Context, assistantID string) (*assistants.Assistant, error) {
	var assistant assistants.Assistant
	if err := c.get(ctx, []string{"assistants", assistantID}, assistants.ListParams{}, &assistant); err != nil {
		return nil, fmt.Errorf("get assistant %s: %w", assistantID, err)
	}
	return &assistant, nil
}

// ListRunSteps fetches one page of the steps of a run.
func (c *Client) ListRunSteps(ctx context.Context, threadID, runID string, params assistants.ListParams) (*assistants.List[assistants.RunStep], error) {
	var page assistants.List[assistants.RunStep]
	if err := c.get(ctx, []string{"threads", threadID, "runs", runID, "steps"}, params, &page); err != nil {
		return nil, fmt.Errorf("list run steps of %s: %w", runID, err)
	}
	return &page, nil
}

// GetRunStep fetches a single run step.
func (c *Client) GetRunStep(ctx context.Context, threadID, runID, stepID string) (*assistants.RunStep, error) {
	var step assistants.RunStep
	if err := c.get(ctx, []string{"threads", threadID, "runs", runID, "steps", stepID}, assistants.ListParams{}, &step); err != nil {
		return nil, fmt.Errorf("get run step %s: %w", stepID, err)
	}
	return &step, nil
}

// AssistantsFetcher adapts ListAssistants for assistants.Pages.
func (c *Client) AssistantsFetcher() assistants.PageFetcher[assistants.Assistant] {
	return c.ListAssistants
}

// RunStepsFetcher adapts ListRunSteps of one run for assistants.Pages.
func (c *Client) RunStepsFetcher(threadID, runID string) assistants.PageFetcher[assistants.RunStep] {
	return func(ctx context.Context, params assistants.ListParams) (*assistants.List[assistants.RunStep], error) {
		return c.ListRunSteps(ctx, threadID, runID, params)
	}
}

// get issues a GET for the path segments below the base URL and decodes the body into out.
func (c *Client) get(ctx context.Context, segments []string, params assistants.ListParams, out any) error {
	query, err := params.Query()
	if err != nil {
		return err
	}

	u := c.baseURL.JoinPath(segments...)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OpenAI-Beta", BetaHeaderValue)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	RequestID  string
	// Body is the decoded error body; nil when the response did not carry one.
	Body *assistants.ErrorResponse
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}
	var body assistants.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Err.Message != "" {
		apiErr.Body = &body
	}
	return apiErr
}

func (e *APIError) Error() string {
	if e.Body == nil {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s: %s", e.StatusCode, e.Body.Err.Type, e.Body.Err.Message)
}

// Unwrap exposes the decoded error body.
func (e *APIError) Unwrap() error {
	if e.Body == nil {
		return nil
	}
	return e.Body
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
