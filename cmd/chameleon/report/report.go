// Package reportcmder provides the report command, a markdown summary of
// recorded attacks.
package reportcmder

import (
	"context"
	"errors"
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
	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/utils"
)

const cellWidth = 48

type reportCommander struct {
	limit       int
	top         int
	plain       bool
	sqlitePath  string
	postgresDSN string

	logger *slog.Logger
}

var reportFlags = []string{
	config.FlagSQLite,
	config.FlagPostgres,
}

const reportLongDesc string = `Summarize recorded attacks.

Reads the attack log from the configured storage and prints totals, the
most attacked endpoints and the most recent requests as markdown. Output is
rendered for the terminal unless --plain is set or stdout is not a terminal.

Examples:
  chameleon report --sqlite ./honeypot.db
  chameleon report --limit 50 --top 5
  chameleon report --plain > attacks.md`

const reportShortDesc string = "Summarize recorded attacks"

func NewReportCmd() *cobra.Command {
	cmder := &reportCommander{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: reportShortDesc,
		Long:  reportLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := wiring.Viper(cmd, config.ServeFlags, reportFlags)
			if err != nil {
				return err
			}
			log, closeLog, err := wiring.Logger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			cmder.logger = log

			return cmder.run(cmd.Context(), v, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&cmder.limit, "limit", 20, "Number of recent attacks to list")
	cmd.Flags().IntVar(&cmder.top, "top", 10, "Number of most attacked endpoints to list")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print raw markdown")
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgres, &cmder.postgresDSN)

	return cmd
}

func (c *reportCommander) run(ctx context.Context, v *viper.Viper, w io.Writer) error {
	if c.limit <= 0 || c.top <= 0 {
		return errors.New("--limit and --top must be positive")
	}

	driver, err := wiring.NewStorageDriver(ctx, v, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	stats, err := driver.Stats(ctx, c.top)
	if err != nil {
		return fmt.Errorf("computing stats: %w", err)
	}

	logs, err := driver.Recent(ctx, c.limit)
	if err != nil {
		return fmt.Errorf("listing attacks: %w", err)
	}

	md := BuildReport(stats, logs, time.Now())
	if c.plain || !cliui.IsTerminal(w) {
		_, err = io.WriteString(w, md)
		return err
	}

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		c.logger.Debug("markdown rendering failed", "error", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// BuildReport renders stats and logs as a markdown document.
func BuildReport(stats *storage.Stats, logs []*storage.AttackLog, now time.Time) string {
	var b strings.Builder

	endpoint, count := stats.MostAttacked()

	fmt.Fprintf(&b, "# Chameleon attack report\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Total attacks:** %d\n", stats.TotalAttacks)
	fmt.Fprintf(&b, "- **Most attacked:** `%s` (%d)\n", endpoint, count)
	fmt.Fprintf(&b, "- **Fallback responses in view:** %d of %d\n\n", countFallbacks(logs), len(logs))

	if stats.TotalAttacks == 0 {
		b.WriteString("No attacks recorded yet.\n")
		return b.String()
	}

	b.WriteString("## Top endpoints\n\n")
	b.WriteString("| Endpoint | Hits |\n|---|---:|\n")
	for _, ec := range stats.TopEndpoints {
		fmt.Fprintf(&b, "| `%s` | %d |\n", cell(ec.Endpoint), ec.Count)
	}

	b.WriteString("\n## Recent attacks\n\n")
	b.WriteString("| Time (UTC) | IP | Method | Endpoint | Payload | Outcome | User agent |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, log := range logs {
		payload := "-"
		if log.PayloadData != nil {
			payload = cell(*log.PayloadData)
		}
		outcome := log.Outcome
		if outcome == "" {
			outcome = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | `%s` | %s | %s | %s |\n",
			log.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			cell(log.IPAddress),
			log.RequestMethod,
			cell(log.Endpoint),
			payload,
			outcome,
			cell(log.UserAgent),
		)
	}

	return b.String()
}

func countFallbacks(logs []*storage.AttackLog) int {
	n := 0
	for _, log := range logs {
		if log.Outcome != "" && log.Outcome != "success" {
			n++
		}
	}
	return n
}

// cell flattens s into a single table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.NewReplacer("|", `\|`, "`", "'").Replace(s)
	return utils.Truncate(s, cellWidth)
}
