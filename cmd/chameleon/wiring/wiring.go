// Package wiring builds the components shared by chameleon commands from
// flags and layered configuration.
package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/pkg/cliui"
	"github.com/papercomputeco/chameleon/pkg/config"
	"github.com/papercomputeco/chameleon/pkg/eventstream"
	"github.com/papercomputeco/chameleon/pkg/eventstream/kafka"
	"github.com/papercomputeco/chameleon/pkg/eventstream/nop"
	"github.com/papercomputeco/chameleon/pkg/llm/provider"
	"github.com/papercomputeco/chameleon/pkg/logger"
	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/storage/inmemory"
	"github.com/papercomputeco/chameleon/pkg/storage/postgres"
	"github.com/papercomputeco/chameleon/pkg/storage/sqlite"
	"github.com/papercomputeco/chameleon/pkg/synth"
	"github.com/papercomputeco/chameleon/pkg/utils"
)

// Persistent flag names registered on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagJSONLogs  = "json-logs"
	FlagLogFile   = "log-file"
)

// Logger builds the command logger on stderr: pretty on a terminal, JSON
// with --json-logs, plain text otherwise. With --log-file every record is
// also appended to that file as JSON with its source location. The returned
// func closes the file.
func Logger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	jsonLogs, _ := cmd.Flags().GetBool(FlagJSONLogs)
	logFile, _ := cmd.Flags().GetString(FlagLogFile)

	stderr := cmd.ErrOrStderr()
	console := logger.New(
		logger.WithWriter(stderr),
		logger.WithDebug(debug),
		logger.WithJSON(jsonLogs),
		logger.WithPretty(!jsonLogs && cliui.IsTerminal(stderr)),
	)
	if logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(true),
	)
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

// Viper loads layered configuration for cmd and binds the given flags.
func Viper(cmd *cobra.Command, fs config.FlagSet, keys []string) (*viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString(FlagConfigDir)

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, fs, keys)
	return v, nil
}

// SynthConfig reads the provider section.
func SynthConfig(v *viper.Viper) (synth.Config, error) {
	kind, err := provider.ParseKind(v.GetString("provider.kind"))
	if err != nil {
		return synth.Config{}, err
	}

	timeout, err := parseDuration(v, "provider.timeout")
	if err != nil {
		return synth.Config{}, err
	}

	cfg := synth.DefaultConfig()
	cfg.Kind = kind
	cfg.BaseURL = v.GetString("provider.base_url")
	cfg.Model = v.GetString("provider.model")
	cfg.Proxy = v.GetString("provider.proxy")
	cfg.Timeout = timeout
	if n := v.GetInt("provider.max_tokens"); n > 0 {
		cfg.MaxTokens = n
	}
	cfg.Temperature = v.GetFloat64("provider.temperature")
	return cfg, nil
}

// SynthTimeout reads trap.synth_timeout.
func SynthTimeout(v *viper.Viper) (time.Duration, error) {
	return parseDuration(v, "trap.synth_timeout")
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

// NewStorageDriver opens PostgreSQL when a DSN is set, else SQLite when a
// path is set, else an in-memory store.
func NewStorageDriver(ctx context.Context, v *viper.Viper, log *slog.Logger) (storage.Driver, error) {
	if dsn := v.GetString("storage.postgres_dsn"); dsn != "" {
		driver, err := postgres.NewDriver(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		log.Info("using PostgreSQL storage")
		return driver, nil
	}

	if path := v.GetString("storage.sqlite_path"); path != "" {
		driver, err := sqlite.NewSQLiteDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		log.Info("using SQLite storage", "path", path)
		return driver, nil
	}

	log.Info("using in-memory storage")
	return inmemory.NewDriver(), nil
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(v *viper.Viper, log *slog.Logger) (eventstream.Publisher, error) {
	kind := v.GetString("eventstream.provider")
	brokers := utils.SplitList(v.GetString("eventstream.brokers"))

	switch {
	case kind == "" && len(brokers) == 0, kind == "none":
		return nop.NewPublisher(), nil
	case kind == "" || kind == "kafka":
		pub, err := kafka.NewPublisher(kafka.Config{
			Brokers: brokers,
			Topic:   v.GetString("eventstream.topic"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		log.Info("publishing attack events to Kafka",
			"brokers", brokers,
			"topic", v.GetString("eventstream.topic"),
		)
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown event stream provider %q", kind)
	}
}
