// Package openai implements a chat completions client for OpenAI and
// OpenAI-compatible APIs such as Groq.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/papercomputeco/chameleon/pkg/llm"
	"github.com/papercomputeco/chameleon/pkg/utils"
)

const completionsPath = "/chat/completions"

// Config configures a Client.
type Config struct {
	// Name identifies the provider in errors, e.g. "groq" or "openai".
	Name string

	// BaseURL is the API root including the version segment,
	// e.g. "https://api.groq.com/openai/v1".
	BaseURL string

	APIKey string

	// Model is used when a request does not name one.
	Model string

	// HTTPClient carries the transport and timeout. Nil uses resty's default.
	HTTPClient *http.Client
}

// Client calls the chat completions endpoint.
type Client struct {
	name  string
	model string
	http  *resty.Client
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	var rc *resty.Client
	if cfg.HTTPClient != nil {
		rc = resty.NewWithClient(cfg.HTTPClient)
	} else {
		rc = resty.New()
	}

	rc.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	return &Client{name: name, model: cfg.Model, http: rc}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

// Complete sends a single non-streaming chat completion request.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	body := chatRequest{
		Model:       c.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	}
	if req.Model != "" {
		body.Model = req.Model
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	var out chatResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(completionsPath)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", c.name, err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = utils.Truncate(resp.String(), 200)
		}
		return nil, fmt.Errorf("%s API error (status %d): %s", c.name, resp.StatusCode(), msg)
	}

	result := &llm.ChatResponse{Model: out.Model}
	for _, ch := range out.Choices {
		result.Choices = append(result.Choices, llm.Choice{
			Index:        ch.Index,
			Message:      llm.Message{Role: ch.Message.Role, Content: ch.Message.Content},
			FinishReason: ch.FinishReason,
		})
	}
	if out.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
	}

	return result, nil
}
