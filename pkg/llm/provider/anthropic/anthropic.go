// Package anthropic implements a client for the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/papercomputeco/chameleon/pkg/llm"
	"github.com/papercomputeco/chameleon/pkg/utils"
)

const (
	messagesPath     = "/v1/messages"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 1024
)

// Config configures a Client.
type Config struct {
	// BaseURL is the API root without the version segment,
	// e.g. "https://api.anthropic.com".
	BaseURL string

	APIKey string

	// Model is used when a request does not name one.
	Model string

	// HTTPClient carries the transport and timeout. Nil uses resty's default.
	HTTPClient *http.Client
}

// Client calls the Messages endpoint.
type Client struct {
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
		SetHeader("x-api-key", cfg.APIKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("Content-Type", "application/json")

	return &Client{model: cfg.Model, http: rc}
}

// Name returns "anthropic".
func (c *Client) Name() string {
	return "anthropic"
}

// Complete sends a single Messages request. The API rejects temperature
// and top_p together, so top_p is only sent when temperature is unset.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	body := messagesRequest{
		Model:       c.model,
		System:      req.System,
		MaxTokens:   defaultMaxTokens,
		Temperature: req.Temperature,
	}
	if req.Model != "" {
		body.Model = req.Model
	}
	if req.MaxTokens != nil {
		body.MaxTokens = *req.MaxTokens
	}
	if req.Temperature == nil {
		body.TopP = req.TopP
	}
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			body.System = strings.TrimSpace(body.System + "\n\n" + m.Content)
			continue
		}
		body.Messages = append(body.Messages, message{Role: m.Role, Content: m.Content})
	}

	var out messagesResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&apiErr).
		Post(messagesPath)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = utils.Truncate(resp.String(), 200)
		}
		return nil, fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode(), msg)
	}

	result := &llm.ChatResponse{Model: out.Model}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() > 0 {
		result.Choices = []llm.Choice{{
			Message:      llm.NewTextMessage(llm.RoleAssistant, text.String()),
			FinishReason: out.StopReason,
		}}
	}

	if out.Usage != nil {
		result.Usage = &llm.Usage{
			PromptTokens:     out.Usage.InputTokens,
			CompletionTokens: out.Usage.OutputTokens,
			TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
		}
	}

	return result, nil
}
