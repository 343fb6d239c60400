package sequence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/ingest"
	"github.com/cognicore/cooc/pkg/cooc/internalerr"
)

// KafkaConfig selects one topic partition as a corpus.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	Partition int
	// ReadTimeout bounds each broker round trip. Defaults to 10s.
	ReadTimeout time.Duration
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// openFunc positions a reader at the first retained offset and reports the
// offset range [first, last) to read.
type openFunc func(ctx context.Context) (r messageReader, first, last int64, err error)

// KafkaReader reads a partition from its first retained message up to the
// high watermark observed at Reset, so a pass over a live topic is finite
// and every pass sees at least the same messages.
//
// Message values are plain text, or a JSON Item whose text is used.
type KafkaReader struct {
	cfg    KafkaConfig
	logger *slog.Logger
	open   openFunc

	r      messageReader
	next   int64
	end    int64
	reads  int
	passes int
}

// NewKafkaReader creates a reader. No connection is made until Reset.
func NewKafkaReader(cfg KafkaConfig, logger *slog.Logger) (*KafkaReader, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("%w: kafka corpus needs brokers and a topic", internalerr.ErrInvalidConfig)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	return &KafkaReader{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "kafka").With("topic", cfg.Topic, "partition", cfg.Partition),
		open:   dialPartition(cfg),
	}, nil
}

// OpenKafka returns a Source over the sentences of a Kafka partition.
func OpenKafka(cfg KafkaConfig, tok *ingest.Tokenizer, logger *slog.Logger) (*Documents, error) {
	r, err := NewKafkaReader(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewDocuments(r, tok), nil
}

func dialPartition(cfg KafkaConfig) openFunc {
	return func(ctx context.Context) (messageReader, int64, int64, error) {
		conn, err := kafka.DialLeader(ctx, "tcp", cfg.Brokers[0], cfg.Topic, cfg.Partition)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("dial partition leader: %w", err)
		}
		first, last, err := conn.ReadOffsets()
		conn.Close()
		if err != nil {
			return nil, 0, 0, fmt.Errorf("read offsets: %w", err)
		}

		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:   cfg.Brokers,
			Topic:     cfg.Topic,
			Partition: cfg.Partition,
			MinBytes:  1,
			MaxBytes:  10e6,
		})
		if err := r.SetOffset(first); err != nil {
			r.Close()
			return nil, 0, 0, fmt.Errorf("seek to offset %d: %w", first, err)
		}
		return r, first, last, nil
	}
}

// Reset implements DocumentReader by reopening the partition at its first
// retained offset.
func (k *KafkaReader) Reset() error {
	if err := k.Close(); err != nil {
		k.logger.Warn("closing previous reader", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), k.cfg.ReadTimeout)
	defer cancel()

	r, first, last, err := k.open(ctx)
	if err != nil {
		return err
	}
	k.r = r
	k.next = first
	k.end = last
	k.reads = 0
	k.passes++
	k.logger.Info("corpus pass started", "first_offset", first, "end_offset", last, "pass", k.passes)
	return nil
}

// Next implements DocumentReader.
func (k *KafkaReader) Next() (string, error) {
	if k.r == nil {
		if err := k.Reset(); err != nil {
			return "", err
		}
	}
	if k.next >= k.end {
		return "", io.EOF
	}

	ctx, cancel := context.WithTimeout(context.Background(), k.cfg.ReadTimeout)
	defer cancel()
	msg, err := k.r.ReadMessage(ctx)
	if err != nil {
		return "", fmt.Errorf("read offset %d: %w", k.next, err)
	}
	k.next = msg.Offset + 1
	k.reads++
	k.logger.Debug("message received", "offset", msg.Offset, "value_size", len(msg.Value))
	return messageText(msg.Value), nil
}

// Close implements io.Closer.
func (k *KafkaReader) Close() error {
	if k.r == nil {
		return nil
	}
	err := k.r.Close()
	k.r = nil
	return err
}

func messageText(value []byte) string {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var item Item
		if err := json.Unmarshal(trimmed, &item); err == nil {
			if item.Title != "" {
				return item.Title + ".\n" + item.Text
			}
			return item.Text
		}
	}
	return string(value)
}
