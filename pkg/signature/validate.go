package signature

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/praetorian-inc/sniff/pkg/magic"
	"github.com/praetorian-inc/sniff/pkg/types"
)

// ValidateSignature checks signature consistency and required fields, and
// runs its examples through the compiled matcher.
// Returns error if signature is invalid.
func ValidateSignature(s *types.Signature) error {
	if s == nil {
		return fmt.Errorf("signature is nil")
	}

	// Check required fields
	if s.ID == "" {
		return fmt.Errorf("signature ID is required")
	}
	if s.Name == "" {
		return fmt.Errorf("signature %s: name is required", s.ID)
	}
	if len(s.Pattern) == 0 {
		return fmt.Errorf("signature %s: value is required", s.ID)
	}

	m, err := NewMatcher(s)
	if err != nil {
		return fmt.Errorf("signature %s: %w", s.ID, err)
	}

	// Validate StructuralID matches computed value
	expectedID := s.ComputeStructuralID()
	if s.StructuralID != "" && s.StructuralID != expectedID {
		return fmt.Errorf("signature %s has inconsistent StructuralID: got %s, expected %s",
			s.ID, s.StructuralID, expectedID)
	}

	for i, example := range s.Examples {
		mt, err := m.Detect(magic.NewStream(bytes.NewReader(example)))
		if err != nil {
			return fmt.Errorf("signature %s: example %d: %w", s.ID, i+1, err)
		}
		if mt != s.MediaType {
			return fmt.Errorf("signature %s: example %d does not match", s.ID, i+1)
		}
	}

	for i, example := range s.NegativeExamples {
		mt, err := m.Detect(magic.NewStream(bytes.NewReader(example)))
		if err != nil {
			return fmt.Errorf("signature %s: negative example %d: %w", s.ID, i+1, err)
		}
		if mt == s.MediaType {
			return fmt.Errorf("signature %s: negative example %d matches", s.ID, i+1)
		}
	}

	return nil
}

// ValidateSignatures validates every signature and checks IDs are unique.
// All problems are reported, joined into one error.
func ValidateSignatures(sigs []*types.Signature) error {
	var errs []error
	seen := make(map[string]bool)
	for _, s := range sigs {
		if err := ValidateSignature(s); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate signature ID: %s", s.ID))
		}
		seen[s.ID] = true
	}
	return errors.Join(errs...)
}
