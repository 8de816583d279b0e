package types

import (
	"fmt"
	"strings"
)

// MediaType is the content type label reported by a detector, e.g.
// "application/pdf". The zero value means "no media type".
type MediaType struct {
	Type    string
	Subtype string
}

// OctetStream is the "undetermined" media type returned when no detector
// recognizes the content.
var OctetStream = MediaType{Type: "application", Subtype: "octet-stream"}

// NewMediaType builds a media type, lowercasing both parts.
func NewMediaType(typ, subtype string) MediaType {
	return MediaType{
		Type:    strings.ToLower(strings.TrimSpace(typ)),
		Subtype: strings.ToLower(strings.TrimSpace(subtype)),
	}
}

// ParseMediaType parses "type/subtype". Parameters after ';' are dropped.
func ParseMediaType(s string) (MediaType, error) {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	typ, subtype, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || typ == "" || subtype == "" || strings.ContainsAny(subtype, "/ \t") || strings.ContainsAny(typ, " \t") {
		return MediaType{}, fmt.Errorf("invalid media type %q", s)
	}
	return NewMediaType(typ, subtype), nil
}

// MustParseMediaType is like ParseMediaType but panics on error.
// Intended for package-level variables and tests.
func MustParseMediaType(s string) MediaType {
	mt, err := ParseMediaType(s)
	if err != nil {
		panic(err)
	}
	return mt
}

// IsZero reports whether the media type is unset.
func (m MediaType) IsZero() bool {
	return m.Type == "" && m.Subtype == ""
}

// IsOctetStream reports whether m is the undetermined sentinel.
func (m MediaType) IsOctetStream() bool {
	return m == OctetStream
}

// String returns "type/subtype", or "" for the zero value.
func (m MediaType) String() string {
	if m.IsZero() {
		return ""
	}
	return m.Type + "/" + m.Subtype
}

// MarshalText implements encoding.TextMarshaler.
func (m MediaType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields
// the zero value.
func (m *MediaType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*m = MediaType{}
		return nil
	}
	parsed, err := ParseMediaType(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
