package jules

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://jules.googleapis.com/v1alpha"

	defaultCallTimeout   = 15 * time.Second
	defaultCreateTimeout = 30 * time.Second
	maxPages             = 5
	pageSize             = 100
)

// Client is the subset of the Jules REST API the orchestrator drives. Every
// call carries the API key it should authenticate with, since each roadmap
// may use its own.
type Client interface {
	CreateSession(ctx context.Context, apiKey string, req CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, apiKey, sessionID string) (*Session, error)
	ListActivities(ctx context.Context, apiKey, sessionID string) ([]Activity, error)
	SendMessage(ctx context.Context, apiKey, sessionID, text string) error
	VotePlan(ctx context.Context, apiKey, sessionID string, action PlanAction) error
	DeleteSession(ctx context.Context, apiKey, sessionID string) error
	ListSessions(ctx context.Context, apiKey string) ([]Session, error)
}

// APIError is returned for any non-2xx answer.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jules: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

var ErrUnsupportedPlanAction = errors.New("unsupported plan action")

type Option func(*httpClient)

// WithHTTPClient replaces the underlying transport, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(h *httpClient) { h.http = c }
}

// WithCallTimeout bounds status, activity, list and delete calls.
func WithCallTimeout(d time.Duration) Option {
	return func(h *httpClient) {
		if d > 0 {
			h.callTimeout = d
		}
	}
}

// WithCreateTimeout bounds session creation.
func WithCreateTimeout(d time.Duration) Option {
	return func(h *httpClient) {
		if d > 0 {
			h.createTimeout = d
		}
	}
}

type httpClient struct {
	baseURL       string
	http          *http.Client
	callTimeout   time.Duration
	createTimeout time.Duration
}

func NewClient(baseURL string, opts ...Option) Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &httpClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: 30 * time.Second},
		callTimeout:   defaultCallTimeout,
		createTimeout: defaultCreateTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CreateSession(ctx context.Context, apiKey string, req CreateSessionRequest) (*Session, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("prompt is required")
	}
	if strings.TrimSpace(req.Source) == "" {
		return nil, errors.New("source is required")
	}
	body := createSessionBody{
		Prompt:              req.Prompt,
		SourceContext:       sourceContext{Source: req.Source},
		Title:               req.Title,
		RequirePlanApproval: req.RequireApproval,
		AutomationMode:      req.AutomationMode,
	}
	if req.StartingBranch != "" {
		body.SourceContext.GithubRepoContext = &githubRepoContext{StartingBranch: req.StartingBranch}
	}

	ctx, cancel := context.WithTimeout(ctx, c.createTimeout)
	defer cancel()

	var sess Session
	if err := c.do(ctx, apiKey, http.MethodPost, "/sessions", nil, body, &sess); err != nil {
		return nil, err
	}
	if sess.Name == "" {
		return nil, errors.New("jules: create session returned no session name")
	}
	return &sess, nil
}

func (c *httpClient) GetSession(ctx context.Context, apiKey, sessionID string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var sess Session
	if err := c.do(ctx, apiKey, http.MethodGet, sessionPath(sessionID), nil, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *httpClient) ListActivities(ctx context.Context, apiKey, sessionID string) ([]Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var all []Activity
	token := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{"pageSize": {fmt.Sprint(pageSize)}}
		if token != "" {
			q.Set("pageToken", token)
		}
		var resp listActivitiesResponse
		if err := c.do(ctx, apiKey, http.MethodGet, sessionPath(sessionID)+"/activities", q, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Activities...)
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	return all, nil
}

func (c *httpClient) SendMessage(ctx context.Context, apiKey, sessionID, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("message is required")
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.do(ctx, apiKey, http.MethodPost, sessionPath(sessionID)+":sendMessage", nil, map[string]string{"prompt": text}, nil)
}

func (c *httpClient) VotePlan(ctx context.Context, apiKey, sessionID string, action PlanAction) error {
	if PlanAction(strings.ToLower(string(action))) != PlanApprove {
		return fmt.Errorf("%w: %q", ErrUnsupportedPlanAction, action)
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.do(ctx, apiKey, http.MethodPost, sessionPath(sessionID)+":approvePlan", nil, struct{}{}, nil)
}

func (c *httpClient) DeleteSession(ctx context.Context, apiKey, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()
	return c.do(ctx, apiKey, http.MethodDelete, sessionPath(sessionID), nil, nil, nil)
}

func (c *httpClient) ListSessions(ctx context.Context, apiKey string) ([]Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var all []Session
	token := ""
	for page := 0; page < maxPages; page++ {
		q := url.Values{"pageSize": {fmt.Sprint(pageSize)}}
		if token != "" {
			q.Set("pageToken", token)
		}
		var resp listSessionsResponse
		if err := c.do(ctx, apiKey, http.MethodGet, "/sessions", q, nil, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Sessions...)
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}
	return all, nil
}

// sessionPath accepts both bare ids and "sessions/<id>" resource names.
func sessionPath(sessionID string) string {
	sessionID = strings.Trim(strings.TrimSpace(sessionID), "/")
	if strings.HasPrefix(sessionID, "sessions/") {
		return "/" + sessionID
	}
	return "/sessions/" + url.PathEscape(sessionID)
}

func (c *httpClient) do(ctx context.Context, apiKey, method, path string, query url.Values, in, out interface{}) error {
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("api key is required")
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("jules: marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("jules: build %s %s: %w", method, path, err)
	}
	req.Header.Set("X-Goog-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("jules: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("jules: decode %s %s: %w", method, path, err)
	}
	return nil
}
