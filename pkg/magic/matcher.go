// Package magic detects content types from magic bytes: a fixed byte pattern,
// optionally bit-masked, found at or near the beginning of a stream.
//
// A Matcher is built once from a media type, a pattern, an optional mask and
// an inclusive range of offsets where the pattern may start. Detect then reads
// the stream forward exactly once, sliding a window of len(pattern) bytes over
// the offset range:
//
//	m, err := magic.New(types.MustParseMediaType("application/pdf"), []byte("%PDF-"),
//	    magic.WithOffsetRange(0, 1024))
//	if err != nil {
//	    return err
//	}
//	mt, err := m.Detect(magic.NewStream(file))
//
// A stream that does not match yields types.OctetStream and a nil error.
// Only read failures of the stream itself are returned as errors.
package magic

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math"

	"github.com/praetorian-inc/sniff/pkg/types"
)

// Detector reports the media type of a stream, or types.OctetStream when it
// cannot tell.
type Detector interface {
	Detect(s Stream) (types.MediaType, error)
}

// Matcher detects a single magic-byte signature. It is immutable after New
// and safe for concurrent use on independent streams.
type Matcher struct {
	mediaType types.MediaType
	pattern   []byte
	mask      []byte // nil when the raw window is compared
	begin     int64  // first window start, inclusive
	end       int64  // last window start, inclusive
}

// matcherConfig holds optional constructor arguments.
type matcherConfig struct {
	mask  []byte
	begin int64
	end   int64
}

// Option configures a Matcher.
type Option func(*matcherConfig)

// WithMask ANDs every window byte with the corresponding mask byte before
// comparing it to the pattern. The mask must be as long as the pattern.
func WithMask(mask []byte) Option {
	return func(c *matcherConfig) {
		c.mask = mask
	}
}

// WithOffset expects the pattern to start exactly at offset n.
func WithOffset(n int64) Option {
	return WithOffsetRange(n, n)
}

// WithOffsetRange lets the pattern start anywhere in [begin, end].
// Without an offset option the pattern must start at offset 0.
func WithOffsetRange(begin, end int64) Option {
	return func(c *matcherConfig) {
		c.begin = begin
		c.end = end
	}
}

// New creates a Matcher reporting mt for streams that contain pattern.
//
// Construction fails with a *ConfigError when mt is the zero value, pattern is
// nil, the mask length differs from the pattern length, or the offset range is
// negative or reversed. An empty, non-nil pattern is accepted and matches any
// stream long enough to reach the first offset.
func New(mt types.MediaType, pattern []byte, opts ...Option) (*Matcher, error) {
	var cfg matcherConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	switch {
	case mt.IsZero():
		return nil, newConfigError("media_type", "missing media type")
	case pattern == nil:
		return nil, newConfigError("pattern", "missing pattern")
	case cfg.mask != nil && len(cfg.mask) != len(pattern):
		return nil, newConfigError("mask",
			"different pattern and mask lengths: %d != %d", len(pattern), len(cfg.mask))
	case cfg.begin < 0 || cfg.end < cfg.begin:
		return nil, newConfigError("offset",
			"invalid offset range: [%d,%d]", cfg.begin, cfg.end)
	}

	return &Matcher{
		mediaType: mt,
		pattern:   bytes.Clone(pattern),
		mask:      bytes.Clone(cfg.mask),
		begin:     cfg.begin,
		end:       cfg.end,
	}, nil
}

// MediaType returns the media type reported on a match.
func (m *Matcher) MediaType() types.MediaType {
	return m.mediaType
}

// Pattern returns a copy of the magic pattern.
func (m *Matcher) Pattern() []byte {
	return bytes.Clone(m.pattern)
}

// Mask returns a copy of the mask, or nil when none is configured.
func (m *Matcher) Mask() []byte {
	return bytes.Clone(m.mask)
}

// OffsetRange returns the inclusive range of window start offsets.
func (m *Matcher) OffsetRange() (begin, end int64) {
	return m.begin, m.end
}

// Len returns the pattern length.
func (m *Matcher) Len() int {
	return len(m.pattern)
}

// ReadLimit returns the most bytes a single Detect call ever reads.
// It saturates at math.MaxInt64.
func (m *Matcher) ReadLimit() int64 {
	length := int64(len(m.pattern))
	if m.end > math.MaxInt64-length {
		return math.MaxInt64
	}
	return m.end + length
}

// String describes the matcher, e.g. "application/pdf 255044462d @0:1024".
func (m *Matcher) String() string {
	s := fmt.Sprintf("%s %s", m.mediaType, hex.EncodeToString(m.pattern))
	if m.mask != nil {
		s += "&" + hex.EncodeToString(m.mask)
	}
	if m.begin == m.end {
		return fmt.Sprintf("%s @%d", s, m.begin)
	}
	return fmt.Sprintf("%s @%d:%d", s, m.begin, m.end)
}

// DetectReader is Detect over NewStream(r).
func (m *Matcher) DetectReader(r io.Reader) (types.MediaType, error) {
	return m.Detect(NewStream(r))
}

// Detect reads s forward and returns the configured media type if the
// (masked) pattern occurs at any offset in the range. It returns
// types.OctetStream with a nil error when the range is exhausted or the stream
// ends first. Read failures are returned as *StreamError. The stream is never
// closed.
func (m *Matcher) Detect(s Stream) (types.MediaType, error) {
	length := int64(len(m.pattern))
	var offset int64

	// Skip to the start of the offset range. A stream that cannot skip is
	// advanced one byte at a time.
	for offset < m.begin {
		n, err := s.Skip(m.begin - offset)
		if err != nil {
			return types.OctetStream, &StreamError{Offset: offset, Err: err}
		}
		if n > 0 {
			offset += n
			continue
		}
		if _, err := s.ReadByte(); err != nil {
			if err == io.EOF {
				return types.OctetStream, nil
			}
			return types.OctetStream, &StreamError{Offset: offset, Err: err}
		}
		offset++
	}

	// Fill the comparison window.
	window := make([]byte, length)
	if _, err := io.ReadFull(s, window); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return types.OctetStream, nil
		}
		return types.OctetStream, &StreamError{Offset: offset, Err: err}
	}
	offset += length

	compare := window
	if m.mask != nil {
		compare = make([]byte, length)
	}

	for {
		if m.mask != nil {
			for i := range window {
				compare[i] = window[i] & m.mask[i]
			}
		}

		if bytes.Equal(m.pattern, compare) {
			return m.mediaType, nil
		}

		// offset-length is the start of the current window.
		if offset-length >= m.end {
			return types.OctetStream, nil
		}

		c, err := s.ReadByte()
		if err != nil {
			if err == io.EOF {
				return types.OctetStream, nil
			}
			return types.OctetStream, &StreamError{Offset: offset, Err: err}
		}
		copy(window, window[1:])
		window[length-1] = c
		offset++
	}
}
