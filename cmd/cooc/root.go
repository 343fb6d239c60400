package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cognicore/cooc/internal/logging"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	logger    *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "cooc",
		Short: "Memory-bounded co-occurrence counting",
		Long: `cooc accumulates harmonic-weighted co-occurrence counts of vocabulary
tokens over a corpus, spilling to disk whenever the in-memory table reaches
half of the memory budget.

Examples:
  cooc count --config cooc.yaml
  cooc count --vocab vocab.yaml --corpus news.jsonl --target out.txt --window 3
  cooc export --vocab vocab.yaml --target out.txt --db cooc.db
  cooc neighbors --db cooc.db learning
  cooc cat --vocab vocab.yaml --target out.txt --limit 20`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.Setup(opts.logLevel, opts.logFormat)
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pflags.StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		newCountCmd(opts),
		newExportCmd(opts),
		newNeighborsCmd(opts),
		newCatCmd(opts),
	)
	return cmd
}
