package synth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"golang.org/x/net/http/httpproxy"

	"github.com/papercomputeco/chameleon/pkg/llm/provider"
)

var (
	// ErrUnavailable means no provider client could be built, either because
	// the credential is unset or every construction strategy failed.
	ErrUnavailable = errors.New("provider client unavailable")

	errStrategyPanic = errors.New("client construction panicked")
)

// proxyEnvVars are cleared while a client is constructed so process-wide
// proxy settings are not captured by the provider transport.
var proxyEnvVars = []string{
	"HTTP_PROXY",
	"HTTPS_PROXY",
	"http_proxy",
	"https_proxy",
	"ALL_PROXY",
	"all_proxy",
}

// Strategy names used by DefaultStrategies.
const (
	StrategyEnvironment       = "environment"
	StrategyExplicitTransport = "explicit-transport"
	StrategyCredentialOnly    = "credential-only"
)

// BuildInput is what a Strategy receives. ProxyEnv is the proxy
// configuration read from the environment before the proxy variables were
// cleared.
type BuildInput struct {
	Config     Config
	Credential string
	ProxyEnv   *httpproxy.Config
}

// Strategy is one way of constructing a provider client. A Build error
// wrapping provider.ErrUnsupportedOption moves on to the next strategy; any
// other error ends the attempt.
type Strategy struct {
	Name  string
	Build func(in BuildInput) (provider.Client, error)
}

// DefaultStrategies returns the construction order used by New: full
// options first, then a direct transport, then the credential alone.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: StrategyEnvironment, Build: buildFromEnvironment},
		{Name: StrategyExplicitTransport, Build: buildWithDirectTransport},
		{Name: StrategyCredentialOnly, Build: buildFromCredential},
	}
}

func buildFromEnvironment(in BuildInput) (provider.Client, error) {
	opts := provider.Options{
		Kind:    in.Config.Kind,
		APIKey:  in.Credential,
		BaseURL: in.Config.BaseURL,
		Model:   in.Config.Model,
		Proxy:   in.Config.Proxy,
		Timeout: in.Config.Timeout,
	}
	if in.ProxyEnv != nil {
		proxyFn := in.ProxyEnv.ProxyFunc()
		opts.ProxyFunc = func(r *http.Request) (*url.URL, error) {
			return proxyFn(r.URL)
		}
	}
	return provider.New(opts)
}

func buildWithDirectTransport(in BuildInput) (provider.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil

	return provider.New(provider.Options{
		Kind:       in.Config.Kind,
		APIKey:     in.Credential,
		BaseURL:    in.Config.BaseURL,
		Model:      in.Config.Model,
		HTTPClient: &http.Client{Transport: transport, Timeout: in.Config.Timeout},
	})
}

// buildFromCredential ignores the configured base URL, model, proxy and
// timeout.
func buildFromCredential(in BuildInput) (provider.Client, error) {
	return provider.New(provider.Options{Kind: in.Config.Kind, APIKey: in.Credential})
}

// attempt runs Build, turning a panic into an error.
func (st Strategy) attempt(in BuildInput) (client provider.Client, err error) {
	defer func() {
		if r := recover(); r != nil {
			client = nil
			err = fmt.Errorf("%w: %v", errStrategyPanic, r)
		}
	}()
	return st.Build(in)
}

// construct tries each strategy in order with the proxy variables cleared.
// The proxy configuration is captured first and handed to the strategies;
// the variables are restored on every exit path.
func (s *Service) construct(credential string) (provider.Client, string, error) {
	in := BuildInput{
		Config:     s.config,
		Credential: credential,
		ProxyEnv:   httpproxy.FromEnvironment(),
	}

	restore := clearProxyEnv()
	defer restore()

	for _, st := range s.strategies {
		client, err := st.attempt(in)
		if err == nil {
			return client, st.Name, nil
		}

		if errors.Is(err, provider.ErrUnsupportedOption) {
			s.logger.Debug("client strategy rejected options",
				"strategy", st.Name,
				"error", err,
			)
			continue
		}

		return nil, st.Name, fmt.Errorf("strategy %s: %w", st.Name, err)
	}

	return nil, "", fmt.Errorf("%w: all %d construction strategies rejected", ErrUnavailable, len(s.strategies))
}

// clearProxyEnv unsets the proxy variables and returns a func putting the
// original values back.
func clearProxyEnv() func() {
	saved := make(map[string]string, len(proxyEnvVars))
	for _, k := range proxyEnvVars {
		if v, ok := os.LookupEnv(k); ok {
			saved[k] = v
		}
		_ = os.Unsetenv(k)
	}

	return func() {
		for _, k := range proxyEnvVars {
			if v, ok := saved[k]; ok {
				_ = os.Setenv(k, v)
			} else {
				_ = os.Unsetenv(k)
			}
		}
	}
}
