// Package config loads cooc run configuration from YAML with COOC_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/cooc/pkg/cooc"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/record"
)

// Config is the top-level run configuration.
type Config struct {
	Counting   CountingConfig   `yaml:"counting"`
	Memory     MemoryConfig     `yaml:"memory"`
	Spill      SpillConfig      `yaml:"spill"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Store      StoreConfig      `yaml:"store"`
}

// CountingConfig controls the window and the worker pool.
type CountingConfig struct {
	WindowSize int  `yaml:"windowSize"`
	Symmetric  bool `yaml:"symmetric"`
	Workers    int  `yaml:"workers"`
}

// MemoryConfig sets the budget. Max accepts sizes like "512MiB"; empty
// means the host's available memory.
type MemoryConfig struct {
	Max string `yaml:"max"`
}

// SpillConfig controls intermediate accumulation files.
type SpillConfig struct {
	Dir         string `yaml:"dir"`
	Codec       string `yaml:"codec"`
	BytesPerSec string `yaml:"bytesPerSec"`
}

// OutputConfig names the target file.
type OutputConfig struct {
	Target string `yaml:"target"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint of the CLI.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// CorpusConfig selects and parameterizes the sequence source.
type CorpusConfig struct {
	// Type is one of "jsonl", "html" or "kafka".
	Type      string            `yaml:"type"`
	Paths     []string          `yaml:"paths"`
	Stoplist  string            `yaml:"stoplist"`
	Stopwords []string          `yaml:"stopwords"`
	Synonyms  map[string]string `yaml:"synonyms"`
	MinLength int               `yaml:"minLength"`
	Kafka     KafkaConfig       `yaml:"kafka"`
}

// KafkaConfig holds the corpus topic coordinates.
type KafkaConfig struct {
	Brokers     []string      `yaml:"brokers"`
	Topic       string        `yaml:"topic"`
	Partition   int           `yaml:"partition"`
	ReadTimeout time.Duration `yaml:"readTimeout"`
}

// VocabularyConfig points at the vocabulary file.
type VocabularyConfig struct {
	Path      string `yaml:"path"`
	CacheSize int    `yaml:"cacheSize"`
}

// StoreConfig points at the SQLite export database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Corpus types.
const (
	CorpusJSONL = "jsonl"
	CorpusHTML  = "html"
	CorpusKafka = "kafka"
)

// Load reads a YAML config file (if provided) and applies environment
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the configuration used when a field is not set.
func Default() *Config {
	return &Config{
		Counting: CountingConfig{
			WindowSize: 5,
		},
		Spill: SpillConfig{
			Codec: string(record.CodecNone),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Corpus: CorpusConfig{
			Type:      CorpusJSONL,
			MinLength: 2,
			Kafka: KafkaConfig{
				ReadTimeout: 10 * time.Second,
			},
		},
		Vocabulary: VocabularyConfig{
			CacheSize: 4096,
		},
	}
}

// applyEnvOverrides reads COOC_* environment variables. Unparseable numeric
// values are ignored and caught by Validate if the file value is bad too.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COOC_WINDOW_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Counting.WindowSize = n
		}
	}
	if v := os.Getenv("COOC_SYMMETRIC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Counting.Symmetric = b
		}
	}
	if v := os.Getenv("COOC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Counting.Workers = n
		}
	}
	if v := os.Getenv("COOC_MAX_MEMORY"); v != "" {
		cfg.Memory.Max = v
	}
	if v := os.Getenv("COOC_SPILL_DIR"); v != "" {
		cfg.Spill.Dir = v
	}
	if v := os.Getenv("COOC_SPILL_CODEC"); v != "" {
		cfg.Spill.Codec = v
	}
	if v := os.Getenv("COOC_TARGET"); v != "" {
		cfg.Output.Target = v
	}
	if v := os.Getenv("COOC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("COOC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("COOC_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	if v := os.Getenv("COOC_KAFKA_BROKERS"); v != "" {
		cfg.Corpus.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("COOC_KAFKA_TOPIC"); v != "" {
		cfg.Corpus.Kafka.Topic = v
	}
	if v := os.Getenv("COOC_VOCABULARY"); v != "" {
		cfg.Vocabulary.Path = v
	}
	if v := os.Getenv("COOC_STORE"); v != "" {
		cfg.Store.Path = v
	}
}

// Validate checks the values Options and the loaders depend on.
func (c *Config) Validate() error {
	if c.Counting.WindowSize < 1 {
		return invalid("counting.windowSize must be at least 1, got %d", c.Counting.WindowSize)
	}
	if c.Counting.Workers < 0 {
		return invalid("counting.workers must not be negative, got %d", c.Counting.Workers)
	}
	if _, err := c.MaxMemory(); err != nil {
		return err
	}
	if _, err := c.SpillBytesPerSec(); err != nil {
		return err
	}
	if _, err := record.ParseCodec(c.Spill.Codec); err != nil {
		return err
	}
	switch c.Corpus.Type {
	case CorpusJSONL, CorpusHTML:
		if len(c.Corpus.Paths) == 0 {
			return invalid("corpus.paths is required for %s corpora", c.Corpus.Type)
		}
		if c.Corpus.Type == CorpusJSONL && len(c.Corpus.Paths) != 1 {
			return invalid("jsonl corpus takes exactly one path, got %d", len(c.Corpus.Paths))
		}
	case CorpusKafka:
		if len(c.Corpus.Kafka.Brokers) == 0 || c.Corpus.Kafka.Topic == "" {
			return invalid("corpus.kafka needs brokers and a topic")
		}
	default:
		return invalid("unknown corpus type %q", c.Corpus.Type)
	}
	if c.Vocabulary.Path == "" {
		return invalid("vocabulary.path is required")
	}
	return nil
}

// MaxMemory parses Memory.Max. Zero means unset.
func (c *Config) MaxMemory() (int64, error) {
	return parseSize("memory.max", c.Memory.Max)
}

// SpillBytesPerSec parses Spill.BytesPerSec. Zero means unlimited.
func (c *Config) SpillBytesPerSec() (int64, error) {
	return parseSize("spill.bytesPerSec", c.Spill.BytesPerSec)
}

// Options translates the file configuration into engine options. The
// vocabulary and source are filled in by the Loader.
func (c *Config) Options() (cooc.Options, error) {
	if err := c.Validate(); err != nil {
		return cooc.Options{}, err
	}
	maxMem, _ := c.MaxMemory()
	rate, _ := c.SpillBytesPerSec()
	codec, _ := record.ParseCodec(c.Spill.Codec)
	return cooc.Options{
		Symmetric:        c.Counting.Symmetric,
		WindowSize:       c.Counting.WindowSize,
		Workers:          c.Counting.Workers,
		MaxMemory:        maxMem,
		TargetFile:       c.Output.Target,
		SpillDir:         c.Spill.Dir,
		SpillCodec:       codec,
		SpillBytesPerSec: rate,
	}, nil
}

func parseSize(field, s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, invalid("%s: %v", field, err)
	}
	if n > uint64(1<<62) {
		return 0, invalid("%s: %s is too large", field, s)
	}
	return int64(n), nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
