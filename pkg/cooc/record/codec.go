package record

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
)

// Codec is the byte-level encoding of an accumulation file. The text format
// is the same under every codec; target files are always CodecNone.
type Codec string

const (
	CodecNone Codec = "none"
	// CodecZstd trades CPU for smaller intermediate files.
	CodecZstd Codec = "zstd"
	// CodecLZ4 is cheaper to encode than zstd with a weaker ratio.
	CodecLZ4 Codec = "lz4"
)

// ParseCodec validates a codec name. The empty string means CodecNone.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case "", CodecNone:
		return CodecNone, nil
	case CodecZstd, CodecLZ4:
		return Codec(name), nil
	default:
		return "", fmt.Errorf("%w: unknown spill codec %q", internalerr.ErrInvalidConfig, name)
	}
}

// Extension returns the file suffix used for the codec.
func (c Codec) Extension() string {
	switch c {
	case CodecZstd:
		return ".txt.zst"
	case CodecLZ4:
		return ".txt.lz4"
	default:
		return ".txt"
	}
}

func (c Codec) wrapWriter(w io.Writer) (io.Writer, io.Closer, error) {
	switch c {
	case CodecZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, nil, err
		}
		return enc, enc, nil
	case CodecLZ4:
		lw := lz4.NewWriter(w)
		return lw, lw, nil
	default:
		return w, nil, nil
	}
}

func (c Codec) wrapReader(r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CodecZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	case CodecLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}
