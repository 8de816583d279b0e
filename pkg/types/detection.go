package types

import (
	"strings"
	"time"
)

// Detection is the outcome of sniffing one stream.
type Detection struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	MediaType   MediaType `json:"media_type"`
	SignatureID string    `json:"signature_id,omitempty"` // empty when undetermined
	// Inner is the detection of the decompressed payload when MediaType is a
	// compression format that was unwrapped.
	Inner      *Detection `json:"inner,omitempty"`
	DetectedAt time.Time  `json:"detected_at"`
}

// Matched reports whether any signature matched.
func (d *Detection) Matched() bool {
	return d != nil && !d.MediaType.IsZero() && !d.MediaType.IsOctetStream()
}

// Innermost returns the deepest unwrapped detection (d itself when nothing
// was unwrapped).
func (d *Detection) Innermost() *Detection {
	for d != nil && d.Inner != nil {
		d = d.Inner
	}
	return d
}

// Layers returns the media types from the outermost to the innermost layer.
func (d *Detection) Layers() []MediaType {
	var layers []MediaType
	for cur := d; cur != nil; cur = cur.Inner {
		layers = append(layers, cur.MediaType)
	}
	return layers
}

// LayerString renders Layers joined by " > ", e.g.
// "application/gzip > application/x-tar".
func (d *Detection) LayerString() string {
	layers := d.Layers()
	parts := make([]string, len(layers))
	for i, mt := range layers {
		parts[i] = mt.String()
	}
	return strings.Join(parts, " > ")
}
