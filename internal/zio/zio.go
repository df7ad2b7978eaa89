//Package zio picks a (de)compressor for the files written and read by goMSM.
package zio

import (
	"compress/lzw"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const lzwLitwidth int = 8

// Codec is a compression format.
type Codec int

const (
	Plain Codec = iota
	Zstd
	Gzip
	Flate
	LZW
)

func (c Codec) String() string {
	return [...]string{"plain", "zstd", "gzip", "flate", "lzw"}[c]
}

// FromExt returns the codec implied by the extension of name:
// .zst/.zstd, .gz, .flate and .lzw. Anything else is Plain.
func FromExt(name string) Codec {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return Zstd
	case ".gz":
		return Gzip
	case ".flate":
		return Flate
	case ".lzw":
		return LZW
	default:
		return Plain
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

//Why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// NewWriter returns a writer that compresses into w with c. Closing it
// flushes the compressor but does not close w.
func NewWriter(w io.Writer, c Codec) (io.WriteCloser, error) {
	switch c {
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	case Gzip:
		return gzip.NewWriter(w), nil
	case Flate:
		return flate.NewWriter(w, flate.BestCompression)
	case LZW:
		return lzw.NewWriter(w, lzw.MSB, lzwLitwidth), nil
	default:
		return nopWriteCloser{w}, nil
	}
}

// NewReader returns a reader that decompresses r with c. Closing it
// does not close r.
func NewReader(r io.Reader, c Codec) (io.ReadCloser, error) {
	switch c {
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{d}, nil
	case Gzip:
		return gzip.NewReader(r)
	case Flate:
		return flate.NewReader(r), nil
	case LZW:
		return lzw.NewReader(r, lzw.MSB, lzwLitwidth), nil
	default:
		return io.NopCloser(r), nil
	}
}
