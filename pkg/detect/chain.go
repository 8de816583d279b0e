// Package detect combines magic matchers into an ordered, first-match chain.
//
// Matchers consume their stream, so a chain cannot hand the same forward-only
// reader to each of them. Instead it reads a bounded head, just long enough
// for the most demanding matcher, and runs every matcher against its own view
// of that head. The head is then replayed in front of the rest of the reader
// so callers can keep consuming the stream.
//
// The head never exceeds the chain's head limit (DefaultHeadLimit unless
// built with NewChainWithLimit). A matcher whose offset range reaches past
// the limit only sees the first limit bytes.
package detect

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/praetorian-inc/sniff/pkg/magic"
	"github.com/praetorian-inc/sniff/pkg/types"
)

// Entry is one matcher in a chain.
type Entry struct {
	ID       string // signature ID reported with a match
	Priority int    // higher is tried first
	Matcher  *magic.Matcher
}

// Result is the outcome of a chain detection.
type Result struct {
	MediaType   types.MediaType
	SignatureID string // empty when nothing matched
}

// Matched reports whether any entry matched.
func (r Result) Matched() bool {
	return !r.MediaType.IsOctetStream()
}

var noMatch = Result{MediaType: types.OctetStream}

// DefaultHeadLimit caps how many bytes of each stream a chain buffers.
const DefaultHeadLimit int64 = 1 << 20

// Chain tries its entries in priority order and reports the first match.
// It is immutable and safe for concurrent use.
type Chain struct {
	entries   []Entry
	limit     int64
	truncated []string
}

// NewChain orders entries by descending priority. Entries with equal priority
// keep their given order. The head is capped at DefaultHeadLimit.
func NewChain(entries ...Entry) *Chain {
	return NewChainWithLimit(DefaultHeadLimit, entries...)
}

// NewChainWithLimit is NewChain with an explicit head limit. A limit below
// one means DefaultHeadLimit.
func NewChainWithLimit(headLimit int64, entries ...Entry) *Chain {
	if headLimit < 1 {
		headLimit = DefaultHeadLimit
	}

	sorted := slices.Clone(entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	var limit int64
	var truncated []string
	for _, e := range sorted {
		need := e.Matcher.ReadLimit()
		if need > headLimit {
			truncated = append(truncated, e.ID)
			need = headLimit
		}
		limit = max(limit, need)
	}

	return &Chain{entries: sorted, limit: limit, truncated: truncated}
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	return len(c.entries)
}

// Entries returns the entries in the order they are tried.
func (c *Chain) Entries() []Entry {
	return slices.Clone(c.entries)
}

// ReadLimit returns how many bytes of a stream the chain buffers at most.
func (c *Chain) ReadLimit() int64 {
	return c.limit
}

// Truncated returns the IDs of entries whose offset range reaches past the
// head limit, in the order they are tried.
func (c *Chain) Truncated() []string {
	return slices.Clone(c.truncated)
}

// Detect implements magic.Detector.
func (c *Chain) Detect(s magic.Stream) (types.MediaType, error) {
	head, err := c.readHead(s)
	if err != nil {
		return types.OctetStream, err
	}
	res, err := c.match(head)
	return res.MediaType, err
}

// DetectReader detects r and returns a reader that yields the bytes consumed
// during detection followed by the remainder of r.
func (c *Chain) DetectReader(r io.Reader) (Result, io.Reader, error) {
	head, err := c.readHead(r)
	replay := io.MultiReader(bytes.NewReader(head), r)
	if err != nil {
		return noMatch, replay, err
	}
	res, err := c.match(head)
	return res, replay, err
}

// DetectBytes detects in-memory content. Like the other methods it only
// looks at the first ReadLimit bytes.
func (c *Chain) DetectBytes(data []byte) (Result, error) {
	if int64(len(data)) > c.limit {
		data = data[:c.limit]
	}
	return c.match(data)
}

func (c *Chain) readHead(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, c.limit)
	if err != nil && err != io.EOF {
		return buf.Bytes(), &magic.StreamError{Offset: n, Err: err}
	}
	return buf.Bytes(), nil
}

func (c *Chain) match(head []byte) (Result, error) {
	for _, e := range c.entries {
		mt, err := e.Matcher.Detect(magic.NewStream(bytes.NewReader(head)))
		if err != nil {
			return noMatch, fmt.Errorf("signature %s: %w", e.ID, err)
		}
		if !mt.IsOctetStream() {
			return Result{MediaType: mt, SignatureID: e.ID}, nil
		}
	}
	return noMatch, nil
}
