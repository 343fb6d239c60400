package sequence

import (
	"errors"
	"io"

	"github.com/cognicore/cooc/pkg/cooc/ingest"
)

// DocumentReader yields raw document texts in a repeatable order. Next
// returns io.EOF after the last document.
type DocumentReader interface {
	Reset() error
	Next() (string, error)
}

// Documents is a Source that splits each document of a DocumentReader into
// sentences, one sequence per sentence.
type Documents struct {
	docs DocumentReader
	tok  *ingest.Tokenizer

	pending [][]string
	err     error
	eof     bool
	read    int
}

// NewDocuments wraps docs. A nil tokenizer uses ingest.NewTokenizer(nil).
func NewDocuments(docs DocumentReader, tok *ingest.Tokenizer) *Documents {
	if tok == nil {
		tok = ingest.NewTokenizer(nil)
	}
	return &Documents{docs: docs, tok: tok}
}

// Reset implements Source.
func (d *Documents) Reset() error {
	d.pending = nil
	d.err = nil
	d.eof = false
	d.read = 0
	return d.docs.Reset()
}

// HasMore implements Source. A pending read error counts as more, so the
// following Next reports it.
func (d *Documents) HasMore() bool {
	d.fill()
	return len(d.pending) > 0 || d.err != nil
}

// Next implements Source.
func (d *Documents) Next() ([]string, error) {
	d.fill()
	if d.err != nil {
		return nil, d.err
	}
	if len(d.pending) == 0 {
		return nil, io.EOF
	}
	seq := d.pending[0]
	d.pending = d.pending[1:]
	return seq, nil
}

// DocumentsRead returns how many documents were consumed since Reset.
func (d *Documents) DocumentsRead() int {
	return d.read
}

// Close closes the underlying reader if it holds resources.
func (d *Documents) Close() error {
	if c, ok := d.docs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (d *Documents) fill() {
	for len(d.pending) == 0 && !d.eof && d.err == nil {
		text, err := d.docs.Next()
		if errors.Is(err, io.EOF) {
			d.eof = true
			return
		}
		if err != nil {
			d.err = err
			return
		}
		d.read++
		d.pending = d.tok.Sentences(text)
	}
}
