// Package provider constructs language model clients from a provider kind,
// a credential and transport options.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/chameleon/pkg/llm"
	"github.com/papercomputeco/chameleon/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/chameleon/pkg/llm/provider/openai"
)

var (
	// ErrUnsupportedOption marks an option combination the client cannot be
	// built with. Callers may retry with fewer options.
	ErrUnsupportedOption = errors.New("unsupported client option")

	// ErrMissingCredential is returned when Options.APIKey is empty.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrUnknownKind is returned for an unrecognized provider kind.
	ErrUnknownKind = errors.New("unknown provider kind")
)

// Client sends single-shot chat completion requests.
type Client interface {
	// Name returns the provider name, e.g. "groq".
	Name() string

	// Complete performs one request. Implementations do not retry.
	Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
}

// Options configures New. Only Kind and APIKey are required.
type Options struct {
	Kind   Kind
	APIKey string

	// BaseURL overrides the kind's default API root.
	BaseURL string

	// Model overrides the kind's default model.
	Model string

	// Proxy is an explicit proxy URL (http, https or socks5).
	Proxy string

	// ProxyFunc selects a proxy per request when Proxy is empty.
	ProxyFunc func(*http.Request) (*url.URL, error)

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration

	// HTTPClient replaces the transport New would build. It cannot be
	// combined with Proxy or ProxyFunc.
	HTTPClient *http.Client
}

// New builds a Client for opts.Kind.
func New(opts Options) (Client, error) {
	defaults, ok := kindDefaults[opts.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownKind, opts.Kind, SupportedKinds())
	}

	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingCredential, CredentialEnv(opts.Kind))
	}

	baseURL := defaults.BaseURL
	if opts.BaseURL != "" {
		if err := validateEndpoint(opts.BaseURL); err != nil {
			return nil, fmt.Errorf("%w: base url: %w", ErrUnsupportedOption, err)
		}
		baseURL = opts.BaseURL
	}

	model := defaults.Model
	if opts.Model != "" {
		model = opts.Model
	}

	hc, err := httpClient(opts)
	if err != nil {
		return nil, err
	}

	switch opts.Kind {
	case Anthropic:
		return anthropic.New(anthropic.Config{
			BaseURL:    baseURL,
			APIKey:     opts.APIKey,
			Model:      model,
			HTTPClient: hc,
		}), nil
	default:
		return openai.New(openai.Config{
			Name:       string(opts.Kind),
			BaseURL:    baseURL,
			APIKey:     opts.APIKey,
			Model:      model,
			HTTPClient: hc,
		}), nil
	}
}

// httpClient resolves the *http.Client for opts.
func httpClient(opts Options) (*http.Client, error) {
	if opts.HTTPClient != nil {
		if opts.Proxy != "" || opts.ProxyFunc != nil {
			return nil, fmt.Errorf("%w: proxy settings cannot be combined with a custom http client", ErrUnsupportedOption)
		}
		return opts.HTTPClient, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil

	switch {
	case opts.Proxy != "":
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("%w: proxy: %w", ErrUnsupportedOption, err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("%w: proxy scheme %q", ErrUnsupportedOption, u.Scheme)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("%w: proxy %q has no host", ErrUnsupportedOption, opts.Proxy)
		}
		transport.Proxy = http.ProxyURL(u)
	case opts.ProxyFunc != nil:
		transport.Proxy = opts.ProxyFunc
	}

	return &http.Client{Transport: transport, Timeout: opts.Timeout}, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
