// Package llm is a client for OpenAI-compatible chat-completions endpoints
// such as DeepSeek. The model is an opaque collaborator: text in, text or
// JSON out, and malformed output is a recoverable condition.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jgao/tickplan/internal/planner"
	"github.com/jgao/tickplan/internal/prompt"
)

const (
	// DefaultBaseURL is the DeepSeek API root.
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "deepseek-chat"

	defaultTimeout = 2 * time.Minute

	planTemperature = 0.3
)

// ErrMalformedResponse means the model returned output that does not parse
// into the requested schema. Callers may re-ask or abort; it is never fatal.
var ErrMalformedResponse = errors.New("malformed model response")

// ChatRequest is one chat call.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	JSONObject  bool
}

// Client calls a chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// NewClient creates an LLM client. The API key is required.
func NewClient(baseURL, apiKey, model string, logger *slog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("llm api key not configured")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model          string          `json:"model"`
	Messages       []wireMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type wireResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends one system+user exchange and returns the assistant's reply.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	wire := wireRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages: []wireMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if req.JSONObject {
		wire.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded wireResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("chat endpoint error: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// planEnvelope is the JSON schema the planner persona is asked for.
type planEnvelope struct {
	Tasks []struct {
		Title     string `json:"title"`
		Content   string `json:"content"`
		DayOffset int    `json:"day_offset"`
	} `json:"tasks"`
}

// GeneratePlan asks the model to decompose a goal into subtasks over the
// given horizon. Subtasks without a title are dropped; day offsets are
// passed through untrusted, the scheduler clamps them later.
func (c *Client) GeneratePlan(ctx context.Context, goal, extra string, horizon []int, numTasks int) (planner.PlanRequest, error) {
	span := 0
	if len(horizon) > 0 {
		span = horizon[len(horizon)-1] - horizon[0] + 1
	}

	raw, err := c.Chat(ctx, ChatRequest{
		System:      prompt.PlannerSystem(numTasks),
		User:        prompt.PlannerUser(goal, extra, span),
		Temperature: planTemperature,
		JSONObject:  true,
	})
	if err != nil {
		return planner.PlanRequest{}, err
	}

	var envelope planEnvelope
	if err := json.Unmarshal([]byte(stripFences(raw)), &envelope); err != nil {
		c.logger.Warn("plan response did not parse", "error", err, "response", truncate(raw, 200))
		return planner.PlanRequest{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	req := planner.PlanRequest{Goal: goal, Horizon: horizon}
	for _, task := range envelope.Tasks {
		title := strings.TrimSpace(task.Title)
		if title == "" {
			c.logger.Warn("dropping subtask without title")
			continue
		}
		req.Subtasks = append(req.Subtasks, planner.Subtask{
			Title:     title,
			Content:   strings.TrimSpace(task.Content),
			DayOffset: task.DayOffset,
		})
	}
	if len(req.Subtasks) == 0 {
		return planner.PlanRequest{}, fmt.Errorf("%w: no usable tasks", ErrMalformedResponse)
	}

	c.logger.Info("plan generated", "goal", truncate(goal, 50), "subtasks", len(req.Subtasks))
	return req, nil
}

// stripFences removes a markdown code fence the model may have wrapped its
// JSON in despite the json_object request.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
