// Package servecmder provides the serve command, which runs the trap and
// the operator monitor.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/api"
	"github.com/papercomputeco/chameleon/cmd/chameleon/wiring"
	"github.com/papercomputeco/chameleon/pkg/config"
	"github.com/papercomputeco/chameleon/pkg/eventstream"
	"github.com/papercomputeco/chameleon/pkg/llm/provider"
	"github.com/papercomputeco/chameleon/pkg/synth"
	"github.com/papercomputeco/chameleon/trap"
)

type serveCommander struct {
	trapListen   string
	apiListen    string
	sqlitePath   string
	postgresDSN  string
	providerKind string
	baseURL      string
	model        string
	synthTimeout string
	kafkaBrokers string
	kafkaTopic   string

	logger *slog.Logger
}

// serveFlags are the registry keys bound by serve.
var serveFlags = []string{
	config.FlagTrapListen,
	config.FlagAPIListen,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagProviderKind,
	config.FlagBaseURL,
	config.FlagModel,
	config.FlagSynthTimeout,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

const serveLongDesc string = `Run the chameleon trap.

Every request to an unclaimed path is answered with a JSON body fabricated
by the configured language model, and recorded to storage. Without a
provider credential, or when the provider fails, a static fallback body is
served instead.

The monitor (/monitor, /api/logs, /monitor/metrics) is mounted on the trap
listener unless --api-listen gives it a separate address.

Examples:
  chameleon serve
  chameleon serve --listen :8080 --sqlite ./honeypot.db
  chameleon serve --provider anthropic --api-listen 127.0.0.1:9090
  chameleon serve --kafka-brokers localhost:9092`

const serveShortDesc string = "Run the chameleon trap"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := wiring.Viper(cmd, config.ServeFlags, serveFlags)
			if err != nil {
				return err
			}
			log, closeLog, err := wiring.Logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, v)
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagTrapListen, &cmder.trapListen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagAPIListen, &cmder.apiListen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagProviderKind, &cmder.providerKind)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSynthTimeout, &cmder.synthTimeout)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagKafkaTopic, &cmder.kafkaTopic)

	return cmd
}

func (c *serveCommander) run(ctx context.Context, v *viper.Viper) error {
	driver, err := wiring.NewStorageDriver(ctx, v, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	publisher, err := wiring.NewPublisher(v, c.logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	synthesizer, kind, err := c.newSynthesizer(v)
	if err != nil {
		return err
	}

	synthTimeout, err := wiring.SynthTimeout(v)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	apiListen := v.GetString("api.listen")
	apiServer := api.NewServer(api.Config{ListenAddr: apiListen}, driver, reg, c.logger)

	trapConfig := trap.Config{
		ListenAddr:   v.GetString("trap.listen"),
		BodyLimit:    v.GetInt("trap.body_limit"),
		SynthTimeout: synthTimeout,
		ProviderName: string(kind),
		NumWorkers:   v.GetUint("trap.workers"),
		QueueSize:    v.GetUint("trap.queue_size"),
		Registerer:   reg,
		Source:       eventstream.EventSource{Service: "chameleon", Listener: v.GetString("trap.listen")},
	}
	if apiListen == "" {
		trapConfig.Monitor = apiServer
	}

	t, err := trap.New(trapConfig, synthesizer, driver, publisher, c.logger)
	if err != nil {
		return fmt.Errorf("creating trap: %w", err)
	}
	defer t.Close()

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := t.Run(); err != nil {
			errChan <- fmt.Errorf("trap error: %w", err)
		}
	}()

	if apiListen != "" {
		defer apiServer.Shutdown()
		go func() {
			if err := apiServer.Run(); err != nil {
				errChan <- fmt.Errorf("API server error: %w", err)
			}
		}()
	}

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("shutting down", "cause", context.Cause(ctx))
		return nil
	}
}

// newSynthesizer builds the synthesizer and eagerly tries to construct its
// provider client so the operator learns at startup whether synthesis works.
func (c *serveCommander) newSynthesizer(v *viper.Viper) (*synth.Service, provider.Kind, error) {
	cfg, err := wiring.SynthConfig(v)
	if err != nil {
		return nil, "", err
	}

	svc := synth.New(cfg, c.logger)
	if svc.EnsureReady() {
		model := cfg.Model
		if model == "" {
			model = provider.DefaultsFor(cfg.Kind).Model
		}
		c.logger.Info("response synthesis enabled",
			"provider", cfg.Kind,
			"model", model,
		)
	} else {
		c.logger.Warn("response synthesis unavailable, serving fallback responses",
			"provider", cfg.Kind,
			"credential_env", provider.CredentialEnv(cfg.Kind),
		)
	}

	return svc, cfg.Kind, nil
}
