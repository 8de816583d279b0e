package signature

import (
	"testing"

	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string returns empty slice",
			input:    "",
			expected: []string{},
		},
		{
			name:     "single pattern",
			input:    "sniff.zip.*",
			expected: []string{"sniff.zip.*"},
		},
		{
			name:     "multiple patterns comma-separated",
			input:    "zip,gzip,pdf",
			expected: []string{"zip", "gzip", "pdf"},
		},
		{
			name:     "patterns with spaces are trimmed",
			input:    " zip , gzip ,, pdf ",
			expected: []string{"zip", "gzip", "pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePatterns(tt.input))
		})
	}
}

func testSignatures() []*types.Signature {
	return []*types.Signature{
		{ID: "sniff.zip.1", Name: "ZIP"},
		{ID: "sniff.zip.2", Name: "Empty ZIP"},
		{ID: "sniff.gzip.1", Name: "gzip"},
		{ID: "sniff.mpeg.1", Name: "ID3"},
		{ID: "sniff.mpeg.2", Name: "MPEG frame"},
	}
}

func ids(sigs []*types.Signature) []string {
	out := make([]string, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, s.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		config   FilterConfig
		expected []string
	}{
		{
			name:     "no patterns keeps everything",
			config:   FilterConfig{},
			expected: []string{"sniff.zip.1", "sniff.zip.2", "sniff.gzip.1", "sniff.mpeg.1", "sniff.mpeg.2"},
		},
		{
			name:     "include anchored",
			config:   FilterConfig{Include: []string{`^sniff\.zip\.`}},
			expected: []string{"sniff.zip.1", "sniff.zip.2"},
		},
		{
			name:     "include unanchored",
			config:   FilterConfig{Include: []string{"zip"}},
			expected: []string{"sniff.zip.1", "sniff.zip.2", "sniff.gzip.1"},
		},
		{
			name:     "exclude only",
			config:   FilterConfig{Exclude: []string{"mpeg"}},
			expected: []string{"sniff.zip.1", "sniff.zip.2", "sniff.gzip.1"},
		},
		{
			name:     "include then exclude",
			config:   FilterConfig{Include: []string{"zip"}, Exclude: []string{`\.2$`}},
			expected: []string{"sniff.zip.1", "sniff.gzip.1"},
		},
		{
			name:     "negative lookahead",
			config:   FilterConfig{Include: []string{`^sniff\.(?!mpeg\.2)`}},
			expected: []string{"sniff.zip.1", "sniff.zip.2", "sniff.gzip.1", "sniff.mpeg.1"},
		},
		{
			name:     "nothing matches",
			config:   FilterConfig{Include: []string{"^tiff"}},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Filter(testSignatures(), tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(result))
		})
	}
}

func TestFilter_InvalidPattern(t *testing.T) {
	_, err := Filter(testSignatures(), FilterConfig{Include: []string{"(unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regex pattern")

	_, err = Filter(testSignatures(), FilterConfig{Exclude: []string{"[z-a]"}})
	assert.Error(t, err)
}

func TestFilter_Empty(t *testing.T) {
	result, err := Filter(nil, FilterConfig{Include: []string{"(unclosed"}})
	require.NoError(t, err)
	assert.Empty(t, result)
}
