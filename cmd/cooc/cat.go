package main

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

func newCatCmd(root *rootOptions) *cobra.Command {
	var (
		vocabPath string
		target    string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "cat",
		Short: "Print a target file with token labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := vocab.LoadYAML(vocabPath)
			if err != nil {
				return fmt.Errorf("load vocabulary: %w", err)
			}
			r, err := result.Open(target, v)
			if err != nil {
				return err
			}
			defer r.Close()

			out := bufio.NewWriter(cmd.OutOrStdout())
			n := 0
			for p, err := range r.All() {
				if err != nil {
					out.Flush()
					return err
				}
				if limit > 0 && n >= limit {
					break
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", p.First.Label, p.Second.Label,
					strconv.FormatFloat(p.Weight, 'g', -1, 64))
				n++
			}
			return out.Flush()
		},
	}

	f := cmd.Flags()
	f.StringVar(&vocabPath, "vocab", "", "Vocabulary YAML file")
	f.StringVar(&target, "target", "", "Target file written by count")
	f.IntVar(&limit, "limit", 0, "Stop after this many pairs (0 prints all)")
	cmd.MarkFlagRequired("vocab")
	cmd.MarkFlagRequired("target")
	return cmd
}
