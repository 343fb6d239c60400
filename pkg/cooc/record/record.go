// Package record reads and writes accumulation files: UTF-8 text, one
// "indexA indexB weight" record per line.
//
// Parsers accept whitespace, commas, or both between fields. Weights are
// written in the shortest form that round-trips exactly.
package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
)

// MaxIndex is the largest vocabulary index a record may carry; in-memory
// pair keys hold 32-bit indices.
const MaxIndex = math.MaxInt32

// Record is one stored pair weight.
type Record struct {
	A, B   int
	Weight float64
}

// ParseError reports a malformed line. It unwraps to
// internalerr.ErrMalformedRecord.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Unwrap())
}

func (e *ParseError) Unwrap() error {
	if e.Err == nil {
		return internalerr.ErrMalformedRecord
	}
	return e.Err
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}

// Parse parses a single line. Blank lines are not records; callers skip them.
func Parse(line string) (Record, error) {
	fields := strings.FieldsFunc(line, isSeparator)
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: want 3 fields, got %d", internalerr.ErrMalformedRecord, len(fields))
	}

	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("%w: first index: %w", internalerr.ErrMalformedRecord, err)
	}
	b, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("%w: second index: %w", internalerr.ErrMalformedRecord, err)
	}
	w, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: weight: %w", internalerr.ErrMalformedRecord, err)
	}
	if a < 0 || b < 0 {
		return Record{}, fmt.Errorf("%w: negative index", internalerr.ErrMalformedRecord)
	}
	if a > MaxIndex || b > MaxIndex {
		return Record{}, fmt.Errorf("%w: index above %d", internalerr.ErrMalformedRecord, MaxIndex)
	}
	return Record{A: a, B: b, Weight: w}, nil
}

// Append appends the text form of r, newline included.
func Append(dst []byte, r Record) []byte {
	dst = strconv.AppendInt(dst, int64(r.A), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(r.B), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendFloat(dst, r.Weight, 'g', -1, 64)
	return append(dst, '\n')
}
