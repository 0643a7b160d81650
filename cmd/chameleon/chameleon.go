// Package chameleoncmder is the root chameleon command.
package chameleoncmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/chameleon/cmd/chameleon/config"
	initcmder "github.com/papercomputeco/chameleon/cmd/chameleon/init"
	probecmder "github.com/papercomputeco/chameleon/cmd/chameleon/probe"
	reportcmder "github.com/papercomputeco/chameleon/cmd/chameleon/report"
	servecmder "github.com/papercomputeco/chameleon/cmd/chameleon/serve"
	"github.com/papercomputeco/chameleon/cmd/chameleon/wiring"
	versioncmder "github.com/papercomputeco/chameleon/cmd/version"
)

const chameleonLongDesc string = `Chameleon is an HTTP honeypot that answers every probe with a
plausible JSON body fabricated by a language model.

Run the trap using:
  chameleon serve                     Run the trap and the monitor
  chameleon probe GET /api/users      Preview one fabricated response
  chameleon report                    Summarize recorded attacks

The provider credential is read from GROQ_API_KEY, OPENAI_API_KEY or
ANTHROPIC_API_KEY depending on the configured provider. Without it every
request is answered with a static fallback body.`

const chameleonShortDesc string = "Chameleon - AI honeypot"

func NewChameleonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chameleon",
		Short:        chameleonShortDesc,
		Long:         chameleonLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP(wiring.FlagDebug, "d", false, "Enable debug logging")
	cmd.PersistentFlags().String(wiring.FlagConfigDir, "", "Override path to .chameleon/ config directory")
	cmd.PersistentFlags().Bool(wiring.FlagJSONLogs, false, "Emit logs as JSON")
	cmd.PersistentFlags().String(wiring.FlagLogFile, "", "Also append JSON logs to this file")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(probecmder.NewProbeCmd())
	cmd.AddCommand(reportcmder.NewReportCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
