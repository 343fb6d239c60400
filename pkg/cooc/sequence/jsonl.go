package sequence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cognicore/cooc/internal/logging"
	"github.com/cognicore/cooc/pkg/cooc/ingest"
)

// Item is one JSONL corpus document.
type Item struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// JSONLReader reads Items from a JSON-lines file, one document per line.
// Malformed lines are logged and skipped.
type JSONLReader struct {
	path   string
	logger *slog.Logger

	file    *os.File
	sc      *bufio.Scanner
	line    int
	skipped int
}

// NewJSONLReader creates a reader for path. The file is opened on Reset.
func NewJSONLReader(path string, logger *slog.Logger) *JSONLReader {
	return &JSONLReader{
		path:   path,
		logger: logging.WithComponent(logger, "jsonl").With("path", path),
	}
}

// OpenJSONL returns a Source over the sentences of a JSONL corpus.
func OpenJSONL(path string, tok *ingest.Tokenizer, logger *slog.Logger) (*Documents, error) {
	r := NewJSONLReader(path, logger)
	if err := r.Reset(); err != nil {
		return nil, err
	}
	return NewDocuments(r, tok), nil
}

// Reset reopens the file at its start.
func (r *JSONLReader) Reset() error {
	r.Close()
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open corpus %s: %w", r.path, err)
	}
	r.file = f
	r.sc = bufio.NewScanner(f)
	r.sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	r.line = 0
	r.skipped = 0
	return nil
}

// Next returns the text of the next document. A non-empty title is emitted
// as its own sentence before the body.
func (r *JSONLReader) Next() (string, error) {
	if r.sc == nil {
		return "", io.EOF
	}
	for r.sc.Scan() {
		r.line++
		line := strings.TrimSpace(r.sc.Text())
		if line == "" {
			continue
		}
		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			r.skipped++
			r.logger.Warn("skipping malformed JSON", "line", r.line, "error", err)
			continue
		}
		if item.Title != "" {
			return item.Title + ".\n" + item.Text, nil
		}
		return item.Text, nil
	}
	if err := r.sc.Err(); err != nil {
		return "", fmt.Errorf("read corpus %s line %d: %w", r.path, r.line+1, err)
	}
	return "", io.EOF
}

// Skipped returns the number of malformed lines since Reset.
func (r *JSONLReader) Skipped() int {
	return r.skipped
}

// Close releases the file.
func (r *JSONLReader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	r.sc = nil
	return err
}
