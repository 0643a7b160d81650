// Package synth turns a trap request into a fabricated JSON response body by
// prompting a language model, and falls back to a static acknowledgement
// whenever the model cannot be reached or answers with something other than
// JSON. Synthesize never fails.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/papercomputeco/chameleon/pkg/llm"
	"github.com/papercomputeco/chameleon/pkg/llm/provider"
	"github.com/papercomputeco/chameleon/pkg/utils"
)

// Generation defaults.
const (
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.4
	DefaultTopP        = 1.0
)

var (
	ErrEmptyOutput     = errors.New("provider returned no content")
	ErrMalformedOutput = errors.New("provider output is not valid JSON")
)

// Outcome classifies how a response body was produced.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeUnavailable   Outcome = "unavailable"
	OutcomeProviderError Outcome = "provider_error"
	OutcomeEmptyOutput   Outcome = "empty_output"
	OutcomeMalformed     Outcome = "malformed_output"
)

// Fallback reports whether the body is the static fallback payload.
func (o Outcome) Fallback() bool {
	return o != OutcomeSuccess
}

// Config configures the provider client and generation parameters.
type Config struct {
	Kind    provider.Kind
	BaseURL string
	Model   string
	Proxy   string
	Timeout time.Duration

	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultConfig returns the Groq configuration with default generation
// parameters.
func DefaultConfig() Config {
	return Config{
		Kind:        provider.Groq,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
	}
}

// Result is the body served to the client plus how it was produced.
type Result struct {
	Body    string
	Outcome Outcome
	Err     error
}

// Synthesizer produces response bodies for trap requests.
type Synthesizer interface {
	EnsureReady() bool
	Generate(ctx context.Context, req Request) Result
}

// CredentialFunc returns the provider credential, or "" when unset.
type CredentialFunc func() string

// Option customizes a Service.
type Option func(*Service)

// WithCredentialFunc replaces the environment lookup of the credential.
func WithCredentialFunc(fn CredentialFunc) Option {
	return func(s *Service) {
		s.credential = fn
	}
}

// WithStrategies replaces the client construction strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(s *Service) {
		s.strategies = strategies
	}
}

// WithClock sets the time source used for the fallback payload.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service is the response synthesizer. The provider client is created
// lazily on first use and reused afterwards.
type Service struct {
	config     Config
	logger     *slog.Logger
	credential CredentialFunc
	strategies []Strategy
	now        func() time.Time

	mu     sync.Mutex
	client provider.Client
}

// New creates a Service. No client is built until EnsureReady or the first
// Generate call.
func New(config Config, logger *slog.Logger, opts ...Option) *Service {
	if config.Kind == "" {
		config.Kind = provider.Groq
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.TopP <= 0 {
		config.TopP = DefaultTopP
	}

	envVar := provider.CredentialEnv(config.Kind)
	s := &Service{
		config:     config,
		logger:     logger,
		credential: func() string { return os.Getenv(envVar) },
		strategies: DefaultStrategies(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureReady builds the provider client if it does not exist yet and
// reports whether one is available. It is safe for concurrent use and
// repeated calls after success do not rebuild the client. While no client
// exists every call retries construction, so a credential provided after
// startup is picked up.
func (s *Service) EnsureReady() bool {
	_, ok := s.readyClient()
	return ok
}

func (s *Service) readyClient() (provider.Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, true
	}

	credential := s.credential()
	if credential == "" {
		s.logger.Debug("provider credential not set, serving fallback responses",
			"provider", s.config.Kind,
			"env", provider.CredentialEnv(s.config.Kind),
		)
		return nil, false
	}

	client, strategy, err := s.construct(credential)
	if err != nil {
		s.logger.Warn("could not construct provider client",
			"provider", s.config.Kind,
			"error", err,
		)
		return nil, false
	}

	s.client = client
	if strategy == StrategyCredentialOnly {
		s.logger.Warn("provider client built from the credential alone, configured settings ignored",
			"provider", client.Name(),
			"base_url", s.config.BaseURL,
			"model", s.config.Model,
			"proxy", s.config.Proxy,
			"timeout", s.config.Timeout,
		)
	}
	s.logger.Info("provider client ready",
		"provider", client.Name(),
		"strategy", strategy,
	)
	return client, true
}

// Synthesize returns a JSON response body for req. The result is always
// valid JSON: the model's cleaned output on success, the fallback payload
// otherwise.
func (s *Service) Synthesize(ctx context.Context, req Request) string {
	return s.Generate(ctx, req).Body
}

// Generate is Synthesize with the outcome and cause attached.
func (s *Service) Generate(ctx context.Context, req Request) Result {
	client, ok := s.readyClient()
	if !ok {
		return s.fallback(OutcomeUnavailable, ErrUnavailable)
	}

	res := s.call(ctx, client, BuildPrompt(req))
	switch res.outcome {
	case OutcomeSuccess:
	case OutcomeProviderError:
		s.logger.Warn("provider call failed",
			"method", req.Method,
			"endpoint", req.Endpoint,
			"error", res.err,
		)
		return s.fallback(res.outcome, res.err)
	default:
		s.logger.Warn("provider returned no content",
			"method", req.Method,
			"endpoint", req.Endpoint,
		)
		return s.fallback(res.outcome, res.err)
	}

	cleaned := Clean(res.content)
	if !json.Valid([]byte(cleaned)) {
		s.logger.Warn("discarding non-JSON provider output",
			"method", req.Method,
			"endpoint", req.Endpoint,
			"output", utils.Truncate(res.content, 120),
		)
		return s.fallback(OutcomeMalformed, ErrMalformedOutput)
	}

	return Result{Body: cleaned, Outcome: OutcomeSuccess}
}

// callResult is the classified outcome of one provider invocation.
type callResult struct {
	content string
	outcome Outcome
	err     error
}

func (s *Service) call(ctx context.Context, client provider.Client, prompt Prompt) (res callResult) {
	defer func() {
		if r := recover(); r != nil {
			res = callResult{outcome: OutcomeProviderError, err: fmt.Errorf("provider client panicked: %v", r)}
		}
	}()

	resp, err := client.Complete(ctx, &llm.ChatRequest{
		Model:       s.config.Model,
		System:      prompt.System,
		Messages:    []llm.Message{llm.NewTextMessage(llm.RoleUser, prompt.User)},
		MaxTokens:   llm.Ptr(s.config.MaxTokens),
		Temperature: llm.Ptr(s.config.Temperature),
		TopP:        llm.Ptr(s.config.TopP),
	})
	if err != nil {
		return callResult{outcome: OutcomeProviderError, err: err}
	}

	content := resp.FirstContent()
	if content == "" {
		return callResult{outcome: OutcomeEmptyOutput, err: ErrEmptyOutput}
	}

	return callResult{content: content, outcome: OutcomeSuccess}
}

func (s *Service) fallback(outcome Outcome, err error) Result {
	return Result{Body: Fallback(s.now()), Outcome: outcome, Err: err}
}
