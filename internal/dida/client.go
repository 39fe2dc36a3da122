package dida

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jgao/tickplan/internal/auth"
)

const (
	// DefaultBaseURL is the Dida365 (TickTick) open API root.
	DefaultBaseURL = "https://api.dida365.com/open/v1"

	defaultUserAgent   = "tickplan/1.0 (Go)"
	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
	defaultTimeout     = 30 * time.Second

	errBodySnippetLen = 200
)

// TokenSource supplies bearer tokens for each request. Invalidate marks the
// current token stale after the service rejects it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// Client is a thin authenticated wrapper around the task service. Every
// request obtains its bearer token from the TokenSource; retry and backoff
// policy is centralized in do, not scattered across call sites.
type Client struct {
	baseURL     string
	inboxID     string
	tokens      TokenSource
	httpClient  *http.Client
	logger      *slog.Logger
	userAgent   string
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRetryDelay overrides the base backoff delay, for tests.
func WithRetryDelay(d time.Duration) Option {
	return func(cl *Client) { cl.retryDelay = d }
}

// WithMaxAttempts overrides the attempt budget for transient failures.
func WithMaxAttempts(n int) Option {
	return func(cl *Client) { cl.maxAttempts = n }
}

// NewClient creates a task service client. inboxID may be empty, in which
// case inbox operations fail with a ValidationError.
func NewClient(baseURL, inboxID string, tokens TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		inboxID:     inboxID,
		tokens:      tokens,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logger,
		userAgent:   defaultUserAgent,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTask creates a task and returns it with the service-assigned id.
func (c *Client) CreateTask(ctx context.Context, draft TaskDraft) (*Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Detail: "must not be empty"}
	}
	projectID := draft.ProjectID
	if projectID == "" {
		projectID = c.inboxID
	}
	if projectID == "" {
		return nil, &ValidationError{Field: "project_id", Detail: "no project id given and no inbox configured"}
	}

	req := createTaskRequest{
		Title:     title,
		Content:   strings.TrimSpace(draft.Content),
		ProjectID: projectID,
		ParentID:  draft.ParentID,
		IsAllDay:  draft.AllDay,
	}
	if !draft.DueAt.IsZero() {
		req.DueDate = draft.DueAt.Format(didaTimeLayout)
		req.TimeZone = draft.TimeZone
	}

	var task Task
	if err := c.do(ctx, http.MethodPost, "/task", req, &task); err != nil {
		return nil, err
	}
	if task.ID == "" {
		return nil, &APIError{Kind: KindRejected, Endpoint: "POST /task", Body: "response missing task id"}
	}
	c.logger.Info("task created", "id", task.ID, "title", task.Title, "parent_id", task.ParentID)
	return &task, nil
}

// ProjectTasks returns the tasks of one project.
func (c *Client) ProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, &ValidationError{Field: "project_id", Detail: "must not be empty"}
	}
	var data projectData
	path := fmt.Sprintf("/project/%s/data", url.PathEscape(projectID))
	if err := c.do(ctx, http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	return data.Tasks, nil
}

// InboxTasks returns the tasks of the configured inbox project.
func (c *Client) InboxTasks(ctx context.Context) ([]Task, error) {
	if c.inboxID == "" {
		return nil, &ValidationError{Field: "inbox_id", Detail: "inbox project id not configured"}
	}
	return c.ProjectTasks(ctx, c.inboxID)
}

// Projects lists all projects.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// UpdateTask applies a partial update and returns the updated task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) (*Task, error) {
	if strings.TrimSpace(taskID) == "" {
		return nil, &ValidationError{Field: "task_id", Detail: "must not be empty"}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, &ValidationError{Field: "title", Detail: "must not be empty"}
	}
	var task Task
	path := fmt.Sprintf("/task/%s", url.PathEscape(taskID))
	if err := c.do(ctx, http.MethodPut, path, patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if strings.TrimSpace(taskID) == "" {
		return &ValidationError{Field: "task_id", Detail: "must not be empty"}
	}
	path := fmt.Sprintf("/task/%s", url.PathEscape(taskID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do issues one authenticated request and interprets the response.
//
// A 401 forces a single token refresh and retry; a second 401 is terminal.
// 429, 5xx, and network-level failures get bounded exponential backoff.
// Any other 4xx is rejected immediately without a retry.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	endpoint := method + " " + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	attempt := 0
	authRetried := false
	for {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build %s request: %w", endpoint, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			attempt++
			if attempt >= c.maxAttempts {
				return &APIError{Kind: KindTransient, Endpoint: endpoint, Err: err}
			}
			c.logger.Warn("request failed, retrying", "endpoint", endpoint, "attempt", attempt, "error", err)
			if werr := c.backoff(ctx, attempt); werr != nil {
				return werr
			}
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return &APIError{Kind: KindTransient, Endpoint: endpoint, Status: resp.StatusCode, Err: readErr}
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			if authRetried {
				return &auth.Error{
					Reason: auth.ReasonReauthRequired,
					Err:    fmt.Errorf("%s: still unauthorized after refresh", endpoint),
				}
			}
			authRetried = true
			c.tokens.Invalidate()
			c.logger.Warn("unauthorized, refreshing token", "endpoint", endpoint)
			continue

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			attempt++
			if attempt >= c.maxAttempts {
				return &APIError{Kind: KindTransient, Endpoint: endpoint, Status: resp.StatusCode, Body: snippet(respBody)}
			}
			c.logger.Warn("transient status, retrying", "endpoint", endpoint, "status", resp.StatusCode, "attempt", attempt)
			if werr := c.backoff(ctx, attempt); werr != nil {
				return werr
			}
			continue

		case resp.StatusCode >= 400:
			return &APIError{Kind: KindRejected, Endpoint: endpoint, Status: resp.StatusCode, Body: snippet(respBody)}
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return &APIError{Kind: KindRejected, Endpoint: endpoint, Status: resp.StatusCode, Body: snippet(respBody), Err: err}
		}
		return nil
	}
}

// backoff sleeps for the attempt's exponential delay or until ctx is done.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.retryDelay << (attempt - 1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > errBodySnippetLen {
		s = s[:errBodySnippetLen] + "..."
	}
	return s
}
