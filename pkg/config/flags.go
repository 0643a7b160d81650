package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag. Commands reference
// flags by registry key so the name, shorthand, default and help text
// cannot drift between commands.
type Flag struct {
	// Name is the long flag name (e.g. "listen").
	Name string

	// Shorthand is the one-letter short flag. Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "trap.listen").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet maps registry keys to flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagTrapListen   = "trap-listen"
	FlagAPIListen    = "api-listen"
	FlagSQLite       = "sqlite"
	FlagPostgres     = "postgres"
	FlagProviderKind = "provider"
	FlagBaseURL      = "base-url"
	FlagModel        = "model"
	FlagSynthTimeout = "synth-timeout"
	FlagKafkaBrokers = "kafka-brokers"
	FlagKafkaTopic   = "kafka-topic"
)

// ServeFlags are the flags of "chameleon serve".
var ServeFlags = FlagSet{
	FlagTrapListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "trap.listen",
		Description: "Address for the trap server to listen on",
	},
	FlagAPIListen: {
		Name:        "api-listen",
		ViperKey:    "api.listen",
		Description: "Separate address for the monitor API (empty mounts it on the trap listener)",
	},
	FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to SQLite database for attack logs (default: in-memory)",
	},
	FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_dsn",
		Description: "PostgreSQL DSN for attack logs (takes precedence over --sqlite)",
	},
	FlagProviderKind: {
		Name:        "provider",
		Shorthand:   "p",
		ViperKey:    "provider.kind",
		Description: "Language model provider (groq, openai, anthropic)",
	},
	FlagBaseURL: {
		Name:        "base-url",
		ViperKey:    "provider.base_url",
		Description: "Override the provider API base URL",
	},
	FlagModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "provider.model",
		Description: "Model used to fabricate responses",
	},
	FlagSynthTimeout: {
		Name:        "synth-timeout",
		ViperKey:    "trap.synth_timeout",
		Description: "Upper bound on a single response synthesis",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Comma separated Kafka brokers; enables attack event publishing",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for attack events",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper. Call it after
// InitViper so flag > env > config file > default holds.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}
