package signature

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/sniff/pkg/types"
)

// convertYAMLSignature converts yamlSignature to types.Signature and computes
// StructuralID.
func convertYAMLSignature(ys yamlSignature) (*types.Signature, error) {
	mt, err := types.ParseMediaType(ys.MediaType)
	if err != nil {
		return nil, fmt.Errorf("signature %s: %w", ys.ID, err)
	}

	pattern, err := decodeValue(ys.Type, ys.Value)
	if err != nil {
		return nil, fmt.Errorf("signature %s: value: %w", ys.ID, err)
	}

	var mask []byte
	if ys.Mask != "" {
		mask, err = decodeHex(ys.Mask)
		if err != nil {
			return nil, fmt.Errorf("signature %s: mask: %w", ys.ID, err)
		}
	}

	begin, end, err := ParseOffset(ys.Offset)
	if err != nil {
		return nil, fmt.Errorf("signature %s: %w", ys.ID, err)
	}

	examples, err := decodeHexList(ys.Examples)
	if err != nil {
		return nil, fmt.Errorf("signature %s: examples: %w", ys.ID, err)
	}
	negatives, err := decodeHexList(ys.NegativeExamples)
	if err != nil {
		return nil, fmt.Errorf("signature %s: negative_examples: %w", ys.ID, err)
	}

	priority := types.DefaultPriority
	if ys.Priority != nil {
		priority = *ys.Priority
	}

	s := &types.Signature{
		ID:               ys.ID,
		Name:             ys.Name,
		MediaType:        mt,
		Pattern:          pattern,
		Mask:             mask,
		OffsetBegin:      begin,
		OffsetEnd:        end,
		Priority:         priority,
		Description:      ys.Description,
		Examples:         examples,
		NegativeExamples: negatives,
		Categories:       ys.Categories,
	}
	s.StructuralID = s.ComputeStructuralID()
	return s, nil
}

// ParseOffset parses "N" or "N:M" into an inclusive offset range.
// The empty string means offset 0.
func ParseOffset(s string) (begin, end int64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}

	first, last, isRange := strings.Cut(s, ":")
	begin, err = strconv.ParseInt(strings.TrimSpace(first), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid offset %q", s)
	}
	if !isRange {
		return begin, begin, nil
	}
	end, err = strconv.ParseInt(strings.TrimSpace(last), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid offset %q", s)
	}
	return begin, end, nil
}

// decodeValue decodes a pattern according to its declared type.
func decodeValue(typ, value string) ([]byte, error) {
	switch typ {
	case "", "string":
		return unescape(value)
	case "hex":
		return decodeHex(value)
	default:
		return nil, fmt.Errorf("unknown value type %q", typ)
	}
}

// decodeHex accepts hex digits with an optional 0x prefix and ignores
// whitespace between byte pairs.
func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	s = strings.Join(strings.Fields(s), "")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}

func decodeHexList(list []string) ([][]byte, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([][]byte, 0, len(list))
	for _, s := range list {
		b, err := decodeHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// unescape decodes the escape sequences allowed in string patterns:
// \\, \n, \r, \t, \0 and \xHH.
func unescape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("trailing backslash in %q", s)
		}
		i++
		switch s[i] {
		case '\\':
			out = append(out, '\\')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '0':
			out = append(out, 0)
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("short \\x escape in %q", s)
			}
			b, err := hex.DecodeString(s[i+1 : i+3])
			if err != nil {
				return nil, fmt.Errorf("invalid \\x escape in %q", s)
			}
			out = append(out, b[0])
			i += 2
		default:
			return nil, fmt.Errorf("unknown escape \\%c in %q", s[i], s)
		}
	}
	return out, nil
}
