package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/store/sqlite"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var vocabPath, target, dbPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Load a target file into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			v, err := vocab.LoadYAML(vocabPath)
			if err != nil {
				return fmt.Errorf("load vocabulary: %w", err)
			}

			st, err := sqlite.OpenSQLite(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			if err := st.ReplaceVocabulary(ctx, v.Labels()); err != nil {
				return fmt.Errorf("store vocabulary: %w", err)
			}

			r, err := result.Open(target, v)
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := st.ImportPairs(ctx, r.All())
			if err != nil {
				return fmt.Errorf("import pairs: %w", err)
			}
			stats, err := st.Stats(ctx)
			if err != nil {
				return err
			}
			root.logger.Info("export completed", "records", n, "pairs", stats.Pairs, "db", dbPath)
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d records (%d pairs, %d elements) to %s\n",
				n, stats.Pairs, stats.Elements, dbPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&vocabPath, "vocab", "", "Vocabulary YAML file")
	f.StringVar(&target, "target", "", "Target file written by count")
	f.StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.MarkFlagRequired("vocab")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("db")
	return cmd
}
