package provider

import (
	"fmt"
	"strings"
)

// Kind names a supported provider.
type Kind string

const (
	Groq      Kind = "groq"
	OpenAI    Kind = "openai"
	Anthropic Kind = "anthropic"
)

// Defaults are the per-kind endpoint, model and credential variable.
type Defaults struct {
	BaseURL       string
	Model         string
	CredentialEnv string
}

var kindDefaults = map[Kind]Defaults{
	Groq: {
		BaseURL:       "https://api.groq.com/openai/v1",
		Model:         "openai/gpt-oss-120b",
		CredentialEnv: "GROQ_API_KEY",
	},
	OpenAI: {
		BaseURL:       "https://api.openai.com/v1",
		Model:         "gpt-4o-mini",
		CredentialEnv: "OPENAI_API_KEY",
	},
	Anthropic: {
		BaseURL:       "https://api.anthropic.com",
		Model:         "claude-haiku-4-5-20251001",
		CredentialEnv: "ANTHROPIC_API_KEY",
	},
}

// SupportedKinds returns every supported provider kind.
func SupportedKinds() []Kind {
	return []Kind{Groq, OpenAI, Anthropic}
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := kindDefaults[k]; !ok {
		return "", fmt.Errorf("%w: %q (supported: %v)", ErrUnknownKind, name, SupportedKinds())
	}
	return k, nil
}

// DefaultsFor returns the defaults for k. Unknown kinds return the zero value.
func DefaultsFor(k Kind) Defaults {
	return kindDefaults[k]
}

// CredentialEnv returns the environment variable holding k's API key.
func CredentialEnv(k Kind) string {
	return kindDefaults[k].CredentialEnv
}
