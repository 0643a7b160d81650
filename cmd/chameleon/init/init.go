// Package initcmder provides the init command for initializing a local
// .chameleon directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chameleon/pkg/config"
	"github.com/papercomputeco/chameleon/pkg/dotdir"
	"github.com/papercomputeco/chameleon/pkg/llm/provider"
)

const initLongDesc string = `Initialize a new .chameleon/ directory in the current working directory.

Creates a local .chameleon/ directory holding config.toml. The local
directory takes precedence over ~/.chameleon/ for configuration and the
default SQLite database location.

Examples:
  chameleon init
  chameleon init --provider anthropic`

const initShortDesc string = "Initialize a local .chameleon/ directory"

func NewInitCmd() *cobra.Command {
	var providerKind string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), providerKind)
		},
	}

	cmd.Flags().StringVar(&providerKind, "provider", "", "Provider to record in the new config (groq, openai, anthropic)")

	return cmd
}

func runInit(w io.Writer, providerKind string) error {
	cfg := config.NewDefaultConfig()
	if providerKind != "" {
		kind, err := provider.ParseKind(providerKind)
		if err != nil {
			return err
		}
		cfg.Provider.Kind = string(kind)
	}

	dir, err := dotdir.NewManager().Init("")
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Initialized .chameleon directory: %s\n", dir)
	fmt.Fprintf(w, "Set %s to enable response synthesis.\n", provider.CredentialEnv(provider.Kind(cfg.Provider.Kind)))
	return nil
}
