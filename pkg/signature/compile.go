package signature

import (
	"fmt"

	"github.com/praetorian-inc/sniff/pkg/detect"
	"github.com/praetorian-inc/sniff/pkg/magic"
	"github.com/praetorian-inc/sniff/pkg/types"
)

// NewMatcher builds the magic matcher described by s.
func NewMatcher(s *types.Signature) (*magic.Matcher, error) {
	opts := []magic.Option{magic.WithOffsetRange(s.OffsetBegin, s.OffsetEnd)}
	if s.Mask != nil {
		opts = append(opts, magic.WithMask(s.Mask))
	}
	return magic.New(s.MediaType, s.Pattern, opts...)
}

// Compile builds a detection chain from signatures.
func Compile(sigs []*types.Signature) (*detect.Chain, error) {
	entries := make([]detect.Entry, 0, len(sigs))
	for _, s := range sigs {
		m, err := NewMatcher(s)
		if err != nil {
			return nil, fmt.Errorf("compiling signature %s: %w", s.ID, err)
		}
		entries = append(entries, detect.Entry{
			ID:       s.ID,
			Priority: s.Priority,
			Matcher:  m,
		})
	}
	return detect.NewChain(entries...), nil
}
