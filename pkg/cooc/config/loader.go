package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/cooc/pkg/cooc/ingest"
	"github.com/cognicore/cooc/pkg/cooc/sequence"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// Stoplist is the stopword file format.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return &sl, nil
}

// Loader builds the runtime collaborators a Config describes.
type Loader struct {
	Config *Config
	Logger *slog.Logger
}

// Components holds the loaded collaborators.
type Components struct {
	Vocab      *vocab.Vocab
	Vocabulary vocab.Index
	Tokenizer  *ingest.Tokenizer
	Source     *sequence.Documents
}

// Close releases the corpus source.
func (c *Components) Close() error {
	if c.Source == nil {
		return nil
	}
	return c.Source.Close()
}

// Load reads the vocabulary and stoplist and opens the corpus.
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp := &Components{}

	v, err := vocab.LoadYAML(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	comp.Vocab = v
	cached, err := vocab.NewCached(v, cfg.Vocabulary.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("vocabulary cache: %w", err)
	}
	comp.Vocabulary = cached

	stopwords := append([]string(nil), cfg.Corpus.Stopwords...)
	if cfg.Corpus.Stoplist != "" {
		sl, err := LoadStoplist(cfg.Corpus.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		stopwords = append(stopwords, sl.Terms...)
	}
	comp.Tokenizer = ingest.NewTokenizer(stopwords)
	if cfg.Corpus.MinLength > 0 {
		comp.Tokenizer.MinLength = cfg.Corpus.MinLength
	}
	if len(cfg.Corpus.Synonyms) > 0 {
		comp.Tokenizer.SetSynonyms(cfg.Corpus.Synonyms)
	}

	switch cfg.Corpus.Type {
	case CorpusJSONL:
		comp.Source, err = sequence.OpenJSONL(cfg.Corpus.Paths[0], comp.Tokenizer, l.Logger)
	case CorpusHTML:
		comp.Source, err = sequence.OpenHTML(comp.Tokenizer, cfg.Corpus.Paths...)
	case CorpusKafka:
		comp.Source, err = sequence.OpenKafka(sequence.KafkaConfig{
			Brokers:     cfg.Corpus.Kafka.Brokers,
			Topic:       cfg.Corpus.Kafka.Topic,
			Partition:   cfg.Corpus.Kafka.Partition,
			ReadTimeout: cfg.Corpus.Kafka.ReadTimeout,
		}, comp.Tokenizer, l.Logger)
	}
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	return comp, nil
}
