package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cognicore/cooc/pkg/cooc"
	"github.com/cognicore/cooc/pkg/cooc/config"
	"github.com/cognicore/cooc/pkg/cooc/metrics"
)

type countOptions struct {
	configPath  string
	vocabPath   string
	corpusType  string
	corpus      []string
	target      string
	window      int
	symmetric   bool
	workers     int
	maxMemory   string
	spillDir    string
	spillCodec  string
	metricsAddr string
}

func newCountCmd(root *rootOptions) *cobra.Command {
	opts := &countOptions{}
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count co-occurrences over a corpus",
		Long: `Count windowed co-occurrences and write them to the target file.

Flags override COOC_* environment variables, which override the
configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			return runCount(cmd, root, cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	f.StringVar(&opts.vocabPath, "vocab", "", "Vocabulary YAML file")
	f.StringVar(&opts.corpusType, "corpus-type", "", "Corpus type (jsonl, html, kafka)")
	f.StringSliceVar(&opts.corpus, "corpus", nil, "Corpus paths")
	f.StringVar(&opts.target, "target", "", "Target file for the final counts")
	f.IntVar(&opts.window, "window", 0, "Forward window size")
	f.BoolVar(&opts.symmetric, "symmetric", false, "Store both orderings of every pair")
	f.IntVar(&opts.workers, "workers", 0, "Counting workers (default GOMAXPROCS)")
	f.StringVar(&opts.maxMemory, "max-memory", "", "Memory budget, e.g. 512MiB (default host memory)")
	f.StringVar(&opts.spillDir, "spill-dir", "", "Directory for intermediate files")
	f.StringVar(&opts.spillCodec, "spill-codec", "", "Intermediate file codec (none, zstd, lz4)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func (o *countOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("vocab") {
		cfg.Vocabulary.Path = o.vocabPath
	}
	if f.Changed("corpus-type") {
		cfg.Corpus.Type = o.corpusType
	}
	if f.Changed("corpus") {
		cfg.Corpus.Paths = o.corpus
	}
	if f.Changed("target") {
		cfg.Output.Target = o.target
	}
	if f.Changed("window") {
		cfg.Counting.WindowSize = o.window
	}
	if f.Changed("symmetric") {
		cfg.Counting.Symmetric = o.symmetric
	}
	if f.Changed("workers") {
		cfg.Counting.Workers = o.workers
	}
	if f.Changed("max-memory") {
		cfg.Memory.Max = o.maxMemory
	}
	if f.Changed("spill-dir") {
		cfg.Spill.Dir = o.spillDir
	}
	if f.Changed("spill-codec") {
		cfg.Spill.Codec = o.spillCodec
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = o.metricsAddr
		cfg.Metrics.Enabled = o.metricsAddr != ""
	}
}

func runCount(cmd *cobra.Command, root *rootOptions, cfg *config.Config) error {
	logger := root.logger

	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load()
	if err != nil {
		return err
	}
	defer comp.Close()

	opts.Vocabulary = comp.Vocabulary
	opts.Source = comp.Source
	opts.Logger = logger

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		obs, err := metrics.NewPrometheus(reg)
		if err != nil {
			return err
		}
		opts.Observer = obs

		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.HandlerFor(reg)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	}

	c, err := cooc.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Fit(ctx); err != nil {
		return fmt.Errorf("count: %w", err)
	}

	st := c.Stats()
	info, err := os.Stat(c.TargetFile())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "target:     %s (%s)\n", c.TargetFile(), humanize.IBytes(uint64(info.Size())))
	fmt.Fprintf(out, "documents:  %s\n", humanize.Comma(int64(comp.Source.DocumentsRead())))
	fmt.Fprintf(out, "sequences:  %s\n", humanize.Comma(st.Sequences))
	fmt.Fprintf(out, "increments: %s\n", humanize.Comma(st.Increments))
	fmt.Fprintf(out, "flushes:    %d (%d backpressure waits)\n", st.Flushes, st.BackpressureWaits)
	fmt.Fprintf(out, "elapsed:    %s\n", st.Duration.Round(time.Millisecond))
	return nil
}
