package llm

// ChatRequest is a single-shot chat completion request.
type ChatRequest struct {
	// Model overrides the client's default model when set.
	Model string `json:"model,omitempty"`

	// System instruction. Providers with a system role send it as the first
	// message; Anthropic sends it top-level.
	System string `json:"system,omitempty"`

	Messages []Message `json:"messages"`

	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
}

// Ptr returns a pointer to v, for the optional generation parameters.
func Ptr[T any](v T) *T {
	return &v
}
