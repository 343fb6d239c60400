package cooc

import (
	"log/slog"

	"github.com/cognicore/cooc/pkg/cooc/metrics"
	"github.com/cognicore/cooc/pkg/cooc/record"
	"github.com/cognicore/cooc/pkg/cooc/sequence"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Builder assembles Options fluently.
//
//	c, err := cooc.NewBuilder().
//		Vocabulary(v).
//		Source(src).
//		WindowSize(3).
//		Build()
type Builder struct {
	opts Options
}

// NewBuilder starts from default options.
func NewBuilder() *Builder {
	return &Builder{}
}

// Symmetric also records every pair in reversed order.
func (b *Builder) Symmetric(on bool) *Builder {
	b.opts.Symmetric = on
	return b
}

// WindowSize sets how many following tokens each token pairs with.
func (b *Builder) WindowSize(n int) *Builder {
	b.opts.WindowSize = n
	return b
}

// Vocabulary sets the token index. Required.
func (b *Builder) Vocabulary(v vocab.Index) *Builder {
	b.opts.Vocabulary = v
	return b
}

// Source sets the corpus. Required.
func (b *Builder) Source(src sequence.Source) *Builder {
	b.opts.Source = src
	return b
}

// Workers sets the number of counting goroutines.
func (b *Builder) Workers(n int) *Builder {
	b.opts.Workers = n
	return b
}

// MaxMemory sets the budget in bytes.
func (b *Builder) MaxMemory(bytes int64) *Builder {
	b.opts.MaxMemory = bytes
	return b
}

// TargetFile sets where the final pair file is written.
func (b *Builder) TargetFile(path string) *Builder {
	b.opts.TargetFile = path
	return b
}

// SpillDir sets the directory for intermediate accumulation files.
func (b *Builder) SpillDir(dir string) *Builder {
	b.opts.SpillDir = dir
	return b
}

// SpillCodec sets the compression of intermediate files.
func (b *Builder) SpillCodec(codec record.Codec) *Builder {
	b.opts.SpillCodec = codec
	return b
}

// SpillBytesPerSec caps spill write throughput. Zero means unlimited.
func (b *Builder) SpillBytesPerSec(n int64) *Builder {
	b.opts.SpillBytesPerSec = n
	return b
}

// Logger sets the logger. Nil discards.
func (b *Builder) Logger(l *slog.Logger) *Builder {
	b.opts.Logger = l
	return b
}

// Observer sets the metrics sink. Nil means no metrics.
func (b *Builder) Observer(o metrics.Observer) *Builder {
	b.opts.Observer = o
	return b
}

// Options returns the options collected so far.
func (b *Builder) Options() Options {
	return b.opts
}

// Build validates the options and creates the instance.
func (b *Builder) Build() (*CoOccurrences, error) {
	return New(b.opts)
}
