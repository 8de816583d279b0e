package types

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
)

// DefaultPriority is the priority of a signature that does not set one.
const DefaultPriority = 50

// Signature is a magic-byte detection descriptor.
type Signature struct {
	ID               string    // e.g., "sniff.pdf.1"
	Name             string    // human-readable name
	MediaType        MediaType // reported on match
	Pattern          []byte    // magic bytes
	Mask             []byte    // optional, same length as Pattern
	OffsetBegin      int64     // first window start (inclusive)
	OffsetEnd        int64     // last window start (inclusive)
	Priority         int       // higher is tried first
	StructuralID     string    // SHA-1 of the match parameters (computed)
	Description      string
	Examples         [][]byte // content that must match
	NegativeExamples [][]byte // content that must not match
	Categories       []string
}

// ComputeStructuralID hashes the parameters that affect matching, so two
// signatures that detect the same thing share an ID regardless of naming.
func (s *Signature) ComputeStructuralID() string {
	h := sha1.New()
	h.Write([]byte(s.MediaType.String()))
	h.Write([]byte{0})
	h.Write(s.Pattern)
	h.Write([]byte{0})
	if s.Mask != nil {
		h.Write([]byte{1})
		h.Write(s.Mask)
	}
	h.Write([]byte{0})

	var offsets [16]byte
	binary.BigEndian.PutUint64(offsets[:8], uint64(s.OffsetBegin))
	binary.BigEndian.PutUint64(offsets[8:], uint64(s.OffsetEnd))
	h.Write(offsets[:])

	return hex.EncodeToString(h.Sum(nil))
}
