package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of the chat context sent to the model.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant messages that requested tools
	ToolCallID string     // tool messages answering a call
	Name       string
}

// ToolCall is a request from the model to run a named local operation.
// Arguments is the raw JSON object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolDefinition declares a tool the model may call. Parameters is a JSON
// schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ResponseSchema constrains the final answer to a JSON schema.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
	Strict bool
}

type ChatRequest struct {
	Task        TaskType
	Messages    []Message
	Tools       []ToolDefinition
	Schema      *ResponseSchema
	Temperature *float64 // nil uses the configured default
	MaxTokens   *int
}

type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	Model        string
	FinishReason string
	LatencyMs    int64
}

// ChatClient is the remote model seen as a black box: messages, tools and
// an optional schema in; text or tool calls out.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// openaiClient talks to any OpenAI-compatible chat completions endpoint.
type openaiClient struct {
	cfg      LLMConfig
	api      *openai.Client
	observer Observer
}

// NewOpenAIClient builds the base client. Retries, throttling and the
// circuit breaker are layered on by NewClient.
func NewOpenAIClient(cfg LLMConfig, observer Observer) ChatClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		apiCfg.BaseURL = cfg.Endpoint
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout()}
	return &openaiClient{cfg: cfg, api: openai.NewClientWithConfig(apiCfg), observer: observer}
}

func (c *openaiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	if c.cfg.APIKey == "" {
		return nil, NewAPIError(0, "API key is not configured")
	}

	resp, err := c.api.CreateChatCompletion(ctx, c.buildRequest(req))
	latency := time.Since(start).Milliseconds()
	if err != nil {
		err = translateError(ctx, err)
		c.observer.OnCallComplete(LLMCallEvent{
			Task: req.Task, Model: c.cfg.Model, LatencyMs: latency, ErrorCode: errorCode(err),
		})
		return nil, err
	}
	if len(resp.Choices) == 0 {
		c.observer.OnCallComplete(LLMCallEvent{
			Task: req.Task, Model: c.cfg.Model, LatencyMs: latency, ErrorCode: errorCode(ErrEmptyOutput),
		})
		return nil, ErrEmptyOutput
	}

	choice := resp.Choices[0]
	out := &ChatResponse{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		LatencyMs:    latency,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}
	c.observer.OnCallComplete(LLMCallEvent{
		Task: req.Task, Model: resp.Model, LatencyMs: latency, Success: true, ToolCalls: len(out.ToolCalls),
	})
	return out, nil
}

func (c *openaiClient) buildRequest(req ChatRequest) openai.ChatCompletionRequest {
	temp := c.cfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := c.cfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}

	out := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: float32(temp),
		MaxTokens:   maxTok,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:       tc.ID,
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		out.Messages = append(out.Messages, msg)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if req.Schema != nil {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema.Schema,
				Strict: req.Schema.Strict,
			},
		}
	}
	return out
}

// translateError maps go-openai failures onto classified APIErrors.
func translateError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewAPIError(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := reqErr.Error()
		if len(reqErr.Body) > 0 {
			msg = string(reqErr.Body)
		}
		return NewAPIError(reqErr.HTTPStatusCode, msg)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
