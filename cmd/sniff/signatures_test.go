package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSignaturesList_Table(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	cmd, stdout, _ := testCmd(nil)
	require.NoError(t, runSignaturesList(cmd, nil))

	output := stdout.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Media Type")
	assert.Contains(t, output, "sniff.pdf.1")
	assert.Contains(t, output, "0:1024")
	assert.Contains(t, output, "sniff.tar.1")
	assert.Contains(t, output, "257")
}

func TestRunSignaturesList_JSON(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	signaturesFormat = "json"

	cmd, stdout, _ := testCmd(nil)
	require.NoError(t, runSignaturesList(cmd, nil))

	var sigs []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &sigs))
	require.NotEmpty(t, sigs)

	var gzip map[string]any
	for _, s := range sigs {
		if s["id"] == "sniff.gzip.1" {
			gzip = s
		}
	}
	require.NotNil(t, gzip, "gzip signature should be listed")
	assert.Equal(t, "application/gzip", gzip["media_type"])
	assert.Equal(t, "1f8b", gzip["pattern"])
}

func TestRunSignaturesList_UnknownFormat(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	signaturesFormat = "xml"

	cmd, _, _ := testCmd(nil)
	err := runSignaturesList(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRunSignaturesValidate_Builtins(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	cmd, stdout, _ := testCmd(nil)
	require.NoError(t, runSignaturesValidate(cmd, nil))
	assert.True(t, strings.HasSuffix(stdout.String(), "examples checked)\n"))
	assert.Contains(t, stdout.String(), "signatures valid")
}

func TestRunSignaturesValidate_BadExample(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte(`signatures:
  - id: custom.bad.1
    name: Bad
    media_type: application/x-bad
    value: "BAD"
    examples:
      - "474f4f44"
`), 0644))
	signaturesPath = path

	cmd, _, _ := testCmd(nil)
	err := runSignaturesValidate(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom.bad.1")
	assert.Contains(t, err.Error(), "does not match")
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "0", formatOffset(0, 0))
	assert.Equal(t, "257", formatOffset(257, 257))
	assert.Equal(t, "0:1024", formatOffset(0, 1024))
}
