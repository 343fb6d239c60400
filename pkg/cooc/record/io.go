package record

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// Writer writes records through an optional compressor.
type Writer struct {
	bw    *bufio.Writer
	comp  io.Closer
	file  *os.File
	buf   []byte
	count int64
}

// NewWriter writes records to w. Close flushes but does not close w.
func NewWriter(w io.Writer, codec Codec) (*Writer, error) {
	cw, comp, err := codec.wrapWriter(w)
	if err != nil {
		return nil, err
	}
	return &Writer{
		bw:   bufio.NewWriterSize(cw, 256<<10),
		comp: comp,
		buf:  make([]byte, 0, 64),
	}, nil
}

// CreateFile creates path and returns a Writer that owns the file.
func CreateFile(path string, codec Codec, wrap func(io.Writer) io.Writer) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	var dst io.Writer = f
	if wrap != nil {
		dst = wrap(f)
	}
	w, err := NewWriter(dst, codec)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	w.buf = Append(w.buf[:0], r)
	if _, err := w.bw.Write(w.buf); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int64 {
	return w.count
}

// Close flushes buffered records, finishes the compressed stream and, for
// file writers, syncs and closes the file.
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.comp != nil {
		err = errors.Join(err, w.comp.Close())
	}
	if w.file != nil {
		if err == nil {
			err = w.file.Sync()
		}
		err = errors.Join(err, w.file.Close())
	}
	return err
}

// Reader reads records line by line.
type Reader struct {
	sc      *bufio.Scanner
	release func()
	file    *os.File
	line    int
}

// NewReader reads records from r.
func NewReader(r io.Reader, codec Codec) (*Reader, error) {
	dr, release, err := codec.wrapReader(r)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(dr)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	return &Reader{sc: sc, release: release}, nil
}

// OpenFile opens path and returns a Reader that owns the file.
func OpenFile(path string, codec Codec) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f, codec)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// Next returns the next record, or io.EOF after the last one. Blank lines
// are skipped; malformed lines yield a *ParseError.
func (r *Reader) Next() (Record, error) {
	for r.sc.Scan() {
		r.line++
		text := r.sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		rec, err := Parse(text)
		if err != nil {
			return Record{}, &ParseError{Line: r.line, Text: text, Err: err}
		}
		return rec, nil
	}
	if err := r.sc.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the decompressor and the file, if owned.
func (r *Reader) Close() error {
	if r.release != nil {
		r.release()
		r.release = nil
	}
	if r.file != nil {
		f := r.file
		r.file = nil
		return f.Close()
	}
	return nil
}
