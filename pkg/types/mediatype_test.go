package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		in      string
		want    MediaType
		wantErr bool
	}{
		{in: "application/pdf", want: MediaType{Type: "application", Subtype: "pdf"}},
		{in: "Image/PNG", want: MediaType{Type: "image", Subtype: "png"}},
		{in: "text/plain; charset=utf-8", want: MediaType{Type: "text", Subtype: "plain"}},
		{in: "  application/x-tar ", want: MediaType{Type: "application", Subtype: "x-tar"}},
		{in: "", wantErr: true},
		{in: "application", wantErr: true},
		{in: "/pdf", wantErr: true},
		{in: "application/", wantErr: true},
		{in: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMediaType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMediaType_ZeroAndSentinel(t *testing.T) {
	var zero MediaType
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())
	assert.False(t, zero.IsOctetStream())

	assert.False(t, OctetStream.IsZero())
	assert.True(t, OctetStream.IsOctetStream())
	assert.Equal(t, "application/octet-stream", OctetStream.String())
}

func TestMediaType_JSON(t *testing.T) {
	data, err := json.Marshal(MustParseMediaType("application/pdf"))
	require.NoError(t, err)
	assert.Equal(t, `"application/pdf"`, string(data))

	var mt MediaType
	require.NoError(t, json.Unmarshal([]byte(`"image/gif"`), &mt))
	assert.Equal(t, MediaType{Type: "image", Subtype: "gif"}, mt)

	assert.Error(t, json.Unmarshal([]byte(`"nonsense"`), &mt))
}

func TestMustParseMediaType_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseMediaType("bogus") })
}
