package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent chameleon configuration stored as
// config.toml in the .chameleon/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Storage     StorageConfig     `toml:"storage"`
	Trap        TrapConfig        `toml:"trap"`
	API         APIConfig         `toml:"api"`
	Provider    ProviderConfig    `toml:"provider"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// StorageConfig selects the attack log backend. PostgresDSN wins over
// SQLitePath; with neither set logs are kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// TrapConfig holds settings for the attacker-facing listener.
type TrapConfig struct {
	Listen       string `toml:"listen,omitempty"`
	BodyLimit    int    `toml:"body_limit,omitempty"`
	SynthTimeout string `toml:"synth_timeout,omitempty"`
	QueueSize    uint   `toml:"queue_size,omitempty"`
	Workers      uint   `toml:"workers,omitempty"`
}

// APIConfig holds monitor API settings. An empty Listen mounts the monitor
// routes on the trap listener.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ProviderConfig configures the language model used to fabricate responses.
// The credential is read from the provider's environment variable and never
// stored here.
type ProviderConfig struct {
	Kind        string  `toml:"kind,omitempty"`
	BaseURL     string  `toml:"base_url,omitempty"`
	Model       string  `toml:"model,omitempty"`
	Proxy       string  `toml:"proxy,omitempty"`
	Timeout     string  `toml:"timeout,omitempty"`
	MaxTokens   int     `toml:"max_tokens,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
}

// EventStreamConfig configures publishing of recorded attacks.
type EventStreamConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func durationKey(name string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = v
			return nil
		},
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.Itoa(*field(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for %s: %q", name, v)
			}
			*field(c) = n
			return nil
		},
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"storage.sqlite_path":  stringKey(func(c *Config) *string { return &c.Storage.SQLitePath }),
	"storage.postgres_dsn": stringKey(func(c *Config) *string { return &c.Storage.PostgresDSN }),

	"trap.listen":        stringKey(func(c *Config) *string { return &c.Trap.Listen }),
	"trap.body_limit":    intKey("trap.body_limit", func(c *Config) *int { return &c.Trap.BodyLimit }),
	"trap.synth_timeout": durationKey("trap.synth_timeout", func(c *Config) *string { return &c.Trap.SynthTimeout }),
	"trap.queue_size":    uintKey("trap.queue_size", func(c *Config) *uint { return &c.Trap.QueueSize }),
	"trap.workers":       uintKey("trap.workers", func(c *Config) *uint { return &c.Trap.Workers }),

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),

	"provider.kind":       stringKey(func(c *Config) *string { return &c.Provider.Kind }),
	"provider.base_url":   stringKey(func(c *Config) *string { return &c.Provider.BaseURL }),
	"provider.model":      stringKey(func(c *Config) *string { return &c.Provider.Model }),
	"provider.proxy":      stringKey(func(c *Config) *string { return &c.Provider.Proxy }),
	"provider.timeout":    durationKey("provider.timeout", func(c *Config) *string { return &c.Provider.Timeout }),
	"provider.max_tokens": intKey("provider.max_tokens", func(c *Config) *int { return &c.Provider.MaxTokens }),
	"provider.temperature": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Provider.Temperature, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 2 {
				return fmt.Errorf("invalid value for provider.temperature: %q", v)
			}
			c.Provider.Temperature = f
			return nil
		},
	},

	"eventstream.provider": stringKey(func(c *Config) *string { return &c.EventStream.Provider }),
	"eventstream.brokers":  stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":    stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
}
