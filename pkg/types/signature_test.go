package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature_ComputeStructuralID(t *testing.T) {
	sig := Signature{
		ID:          "sniff.pdf.1",
		Name:        "PDF document",
		MediaType:   MustParseMediaType("application/pdf"),
		Pattern:     []byte("%PDF-"),
		OffsetBegin: 0,
		OffsetEnd:   1024,
	}

	id := sig.ComputeStructuralID()

	// Should be SHA-1 hex (40 chars)
	assert.Len(t, id, 40)

	// Naming does not affect the structural ID
	renamed := sig
	renamed.ID = "other.id"
	renamed.Name = "Other"
	assert.Equal(t, id, renamed.ComputeStructuralID())

	// Each match parameter does
	widened := sig
	widened.OffsetEnd = 2048
	assert.NotEqual(t, id, widened.ComputeStructuralID())

	masked := sig
	masked.Mask = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	assert.NotEqual(t, id, masked.ComputeStructuralID())

	retyped := sig
	retyped.MediaType = MustParseMediaType("application/x-pdf")
	assert.NotEqual(t, id, retyped.ComputeStructuralID())
}

func TestSignature_EmptyMaskDiffersFromNoMask(t *testing.T) {
	noMask := Signature{MediaType: OctetStream, Pattern: []byte{}}
	emptyMask := Signature{MediaType: OctetStream, Pattern: []byte{}, Mask: []byte{}}

	assert.NotEqual(t, noMask.ComputeStructuralID(), emptyMask.ComputeStructuralID())
}
