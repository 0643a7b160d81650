package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. CHAMELEON_TRAP_LISTEN.
const EnvPrefix = "CHAMELEON"

// InitViper creates a *viper.Viper layered as:
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (CHAMELEON_TRAP_LISTEN, CHAMELEON_PROVIDER_KIND, ...)
//  3. config.toml values
//  4. NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers NewDefaultConfig() under dotted keys so
// defaults.go stays the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)

	v.SetDefault("trap.listen", d.Trap.Listen)
	v.SetDefault("trap.body_limit", d.Trap.BodyLimit)
	v.SetDefault("trap.synth_timeout", d.Trap.SynthTimeout)
	v.SetDefault("trap.queue_size", d.Trap.QueueSize)
	v.SetDefault("trap.workers", d.Trap.Workers)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("provider.kind", d.Provider.Kind)
	v.SetDefault("provider.base_url", d.Provider.BaseURL)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("provider.proxy", d.Provider.Proxy)
	v.SetDefault("provider.timeout", d.Provider.Timeout)
	v.SetDefault("provider.max_tokens", d.Provider.MaxTokens)
	v.SetDefault("provider.temperature", d.Provider.Temperature)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
