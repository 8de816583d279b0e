// Package unwrap opens decompressing readers for the compression formats that
// sniff can see through. Nested detection uses it to identify the payload of a
// compressed stream rather than stopping at the compression layer.
package unwrap

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"github.com/praetorian-inc/sniff/pkg/types"
)

// ErrUnsupported is returned by Open for media types with no decoder.
var ErrUnsupported = errors.New("unwrap: unsupported media type")

type opener func(r io.Reader) (io.ReadCloser, error)

var openers = map[string]opener{
	"application/gzip":            openGzip,
	"application/zstd":            openZstd,
	"application/x-xz":            openXZ,
	"application/x-bzip2":         openBzip2,
	"application/x-lz4":           openLZ4,
	"application/x-snappy-framed": openSnappy,
}

// Supported reports whether Open can decode mt.
func Supported(mt types.MediaType) bool {
	_, ok := openers[mt.String()]
	return ok
}

// MediaTypes lists the media types Open can decode, sorted.
func MediaTypes() []string {
	out := make([]string, 0, len(openers))
	for mt := range openers {
		out = append(out, mt)
	}
	slices.Sort(out)
	return out
}

// Open returns a reader yielding the decompressed content of r, which must
// hold a stream of media type mt. Closing the returned reader does not close r.
func Open(mt types.MediaType, r io.Reader) (io.ReadCloser, error) {
	open, ok := openers[mt.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
	rc, err := open(r)
	if err != nil {
		return nil, fmt.Errorf("unwrap: opening %s: %w", mt, err)
	}
	return rc, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func openGzip(r io.Reader) (io.ReadCloser, error) {
	return pgzip.NewReader(r)
}

func openZstd(r io.Reader) (io.ReadCloser, error) {
	// A single decoder goroutine is enough for a detection head.
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}

func openXZ(r io.Reader) (io.ReadCloser, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(xr), nil
}

func openBzip2(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bzip2.NewReader(r)), nil
}

func openLZ4(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func openSnappy(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(snappy.NewReader(r)), nil
}
