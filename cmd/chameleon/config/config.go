// Package configcmder provides the config command for managing persistent
// chameleon configuration stored in the .chameleon/ directory.
package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chameleon/pkg/cliui"
	"github.com/papercomputeco/chameleon/pkg/config"
)

const configLongDesc string = `Manage persistent chameleon configuration.

Configuration is stored as config.toml in the .chameleon/ directory and
provides default values for command flags. CLI flags and CHAMELEON_*
environment variables take precedence over config file values.

Keys use dotted notation matching the TOML section structure:
  storage.sqlite_path, storage.postgres_dsn,
  trap.listen, trap.body_limit, trap.synth_timeout, trap.queue_size, trap.workers,
  api.listen,
  provider.kind, provider.base_url, provider.model, provider.proxy,
  provider.timeout, provider.max_tokens, provider.temperature,
  eventstream.provider, eventstream.brokers, eventstream.topic

Examples:
  chameleon config set provider.kind anthropic
  chameleon config get trap.listen
  chameleon config list`

const configShortDesc string = "Manage persistent chameleon configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func validateKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(cmd *cobra.Command, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
