// Package probecmder provides the probe command, which fabricates a single
// trap response without starting a server.
package probecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/chameleon/cmd/chameleon/wiring"
	"github.com/papercomputeco/chameleon/pkg/cliui"
	"github.com/papercomputeco/chameleon/pkg/config"
	"github.com/papercomputeco/chameleon/pkg/synth"
)

type probeCommander struct {
	payload      string
	providerKind string
	baseURL      string
	model        string
	synthTimeout string

	// newSynthesizer is replaced in tests.
	newSynthesizer func(cfg synth.Config, logger *slog.Logger) synth.Synthesizer

	logger *slog.Logger
}

var probeFlags = []string{
	config.FlagProviderKind,
	config.FlagBaseURL,
	config.FlagModel,
	config.FlagSynthTimeout,
}

const probeLongDesc string = `Fabricate one trap response and print it.

Runs the same synthesis the trap performs for a request with the given
method, endpoint and optional payload, then prints the JSON body to stdout.
The outcome is reported on stderr, so fallbacks are visible.

Examples:
  chameleon probe GET /api/v1/users
  chameleon probe POST /login --payload '{"username":"admin","password":"admin"}'
  chameleon probe DELETE /admin/backups/42 --provider anthropic`

const probeShortDesc string = "Preview a fabricated trap response"

func NewProbeCmd() *cobra.Command {
	cmder := &probeCommander{
		newSynthesizer: func(cfg synth.Config, logger *slog.Logger) synth.Synthesizer {
			return synth.New(cfg, logger)
		},
	}

	cmd := &cobra.Command{
		Use:   "probe <METHOD> <ENDPOINT>",
		Short: probeShortDesc,
		Long:  probeLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := wiring.Viper(cmd, config.ServeFlags, probeFlags)
			if err != nil {
				return err
			}
			log, closeLog, err := wiring.Logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			return cmder.run(cmd.Context(), v, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1], cmd.Flags().Changed("payload"))
		},
	}

	cmd.Flags().StringVar(&cmder.payload, "payload", "", "Request body to include in the prompt")
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagProviderKind, &cmder.providerKind)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagBaseURL, &cmder.baseURL)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSynthTimeout, &cmder.synthTimeout)

	return cmd
}

func (c *probeCommander) run(ctx context.Context, v *viper.Viper, stdout, stderr io.Writer, method, endpoint string, hasPayload bool) error {
	cfg, err := wiring.SynthConfig(v)
	if err != nil {
		return err
	}

	timeout, err := wiring.SynthTimeout(v)
	if err != nil {
		return err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}

	req := synth.Request{Method: strings.ToUpper(method), Endpoint: endpoint}
	if hasPayload {
		payload := c.payload
		req.Payload = &payload
	}

	synthesizer := c.newSynthesizer(cfg, c.logger)

	var result synth.Result
	start := time.Now()
	_ = cliui.Step(stderr, fmt.Sprintf("%s %s via %s", req.Method, req.Endpoint, cfg.Kind), func() error {
		result = synthesizer.Generate(ctx, req)
		return result.Err
	})

	fmt.Fprintf(stderr, "  %s %s\n\n", cliui.Outcome(string(result.Outcome)), cliui.DimStyle.Render(cliui.FormatDuration(time.Since(start))))
	if result.Err != nil {
		fmt.Fprintf(stderr, "  %s\n\n", cliui.DimStyle.Render(result.Err.Error()))
	}

	_, err = fmt.Fprintln(stdout, indent(result.Body))
	return err
}

// indent pretty-prints JSON bodies and returns anything else unchanged.
func indent(body string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}
