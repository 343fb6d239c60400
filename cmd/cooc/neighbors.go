package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/store"
	"github.com/cognicore/cooc/pkg/cooc/store/memstore"
	"github.com/cognicore/cooc/pkg/cooc/store/sqlite"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

type neighborsOptions struct {
	dbPath    string
	vocabPath string
	target    string
	k         int
}

func newNeighborsCmd(root *rootOptions) *cobra.Command {
	opts := &neighborsOptions{}
	cmd := &cobra.Command{
		Use:   "neighbors TOKEN...",
		Short: "Show the top PMI neighbors of tokens",
		Long: `Show the strongest co-occurrence partners of each token, ranked by PMI.

Reads an exported database (--db), or loads a target file into memory
(--vocab with --target).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, token := range args {
				ns, err := st.TopNeighbors(ctx, strings.ToLower(token), opts.k)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\n", token)
				for _, n := range ns {
					fmt.Fprintf(w, "  %s\t%.4f\t%.4f\n", n.Label, n.PMI, n.Weight)
				}
			}
			return w.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dbPath, "db", "", "SQLite database written by export")
	f.StringVar(&opts.vocabPath, "vocab", "", "Vocabulary YAML file")
	f.StringVar(&opts.target, "target", "", "Target file written by count")
	f.IntVarP(&opts.k, "top", "k", 10, "Neighbors per token")
	return cmd
}

func (o *neighborsOptions) open(ctx context.Context) (store.Store, error) {
	if o.dbPath != "" {
		return sqlite.OpenSQLite(ctx, o.dbPath)
	}
	if o.vocabPath == "" || o.target == "" {
		return nil, fmt.Errorf("either --db or both --vocab and --target are required")
	}

	v, err := vocab.LoadYAML(o.vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	r, err := result.Open(o.target, v)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	st := memstore.New()
	if err := st.ReplaceVocabulary(ctx, v.Labels()); err != nil {
		return nil, err
	}
	if _, err := st.ImportPairs(ctx, r.All()); err != nil {
		return nil, fmt.Errorf("load target: %w", err)
	}
	return st, nil
}
