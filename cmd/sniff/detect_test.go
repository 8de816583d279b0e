package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunDetect_Files(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	dir := writeTree(t, map[string][]byte{
		"doc.bin":  []byte("%PDF-1.4\n"),
		"note.txt": []byte("just text"),
	})

	cmd, stdout, _ := testCmd(nil)
	err := runDetect(cmd, []string{filepath.Join(dir, "doc.bin"), filepath.Join(dir, "note.txt")})
	require.NoError(t, err)

	assert.Equal(t,
		filepath.Join(dir, "doc.bin")+"\tapplication/pdf\tsniff.pdf.1\n"+
			filepath.Join(dir, "note.txt")+"\tapplication/octet-stream\t-\n",
		stdout.String())
}

func TestRunDetect_Stdin(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	cmd, stdout, _ := testCmd([]byte("\x89PNG\r\n\x1a\n"))
	err := runDetect(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "-\timage/png\tsniff.png.1\n", stdout.String())
}

func TestRunDetect_UnwrapsGzip(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	cmd, stdout, _ := testCmd(gzipBytes(t, []byte("%PDF-1.7\n")))
	err := runDetect(cmd, []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "-\tapplication/gzip > application/pdf\tsniff.pdf.1\n", stdout.String())

	resetFlags(t)
	detectMaxDepth = 0
	cmd, stdout, _ = testCmd(gzipBytes(t, []byte("%PDF-1.7\n")))
	require.NoError(t, runDetect(cmd, []string{"-"}))
	assert.Equal(t, "-\tapplication/gzip\tsniff.gzip.1\n", stdout.String())
}

func TestRunDetect_JSON(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	detectFormat = "json"

	cmd, stdout, _ := testCmd([]byte("PK\x03\x04\x14\x00"))
	require.NoError(t, runDetect(cmd, nil))

	var detections []*types.Detection
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &detections))
	require.Len(t, detections, 1)
	assert.Equal(t, "-", detections[0].Path)
	assert.Equal(t, "application/zip", detections[0].MediaType.String())
	assert.Equal(t, "sniff.zip.1", detections[0].SignatureID)
}

func TestRunDetect_JSONEmptyIsArray(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	detectFormat = "json"

	cmd, stdout, _ := testCmd(nil)
	err := runDetect(cmd, []string{filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.Equal(t, "[]\n", stdout.String())
}

func TestRunDetect_MissingFile(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	dir := writeTree(t, map[string][]byte{"a.gif": []byte("GIF89a")})

	cmd, stdout, stderr := testCmd(nil)
	err := runDetect(cmd, []string{filepath.Join(dir, "a.gif"), filepath.Join(dir, "nope")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 inputs could not be read")
	assert.Contains(t, stdout.String(), "image/gif")
	assert.Contains(t, stderr.String(), "warning:")
}

func TestRunDetect_SignatureFilters(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	detectSignaturesExclude = `^sniff\.pdf\.`

	cmd, stdout, _ := testCmd([]byte("%PDF-1.4"))
	require.NoError(t, runDetect(cmd, nil))
	assert.Equal(t, "-\tapplication/octet-stream\t-\n", stdout.String())

	resetFlags(t)
	detectSignaturesInclude = "(["
	cmd, _, _ = testCmd(nil)
	err := runDetect(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid regex pattern")
}

func TestRunDetect_NoSignaturesWarns(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	detectSignaturesInclude = "^nothing-matches$"

	cmd, stdout, stderr := testCmd([]byte("%PDF-1.4"))
	require.NoError(t, runDetect(cmd, nil))
	assert.Contains(t, stderr.String(), "no signatures selected")
	assert.Equal(t, "-\tapplication/octet-stream\t-\n", stdout.String())
}

func TestRunDetect_CustomSignatures(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	path := filepath.Join(t.TempDir(), "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte(`signatures:
  - id: custom.widget.1
    name: Widget
    media_type: application/x-widget
    value: "WDGT"
    offset: "2:8"
`), 0644))
	detectSignaturesPath = path

	cmd, stdout, _ := testCmd([]byte("...WDGT..."))
	require.NoError(t, runDetect(cmd, nil))
	assert.Equal(t, "-\tapplication/x-widget\tcustom.widget.1\n", stdout.String())
}

func TestRunDetect_UnknownFormat(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)
	detectFormat = "xml"

	cmd, _, _ := testCmd(nil)
	err := runDetect(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestDeepestSignatureID(t *testing.T) {
	d := &types.Detection{
		MediaType:   types.MustParseMediaType("application/gzip"),
		SignatureID: "sniff.gzip.1",
		Inner:       &types.Detection{MediaType: types.OctetStream},
	}
	assert.Equal(t, "sniff.gzip.1", deepestSignatureID(d))

	d.Inner.SignatureID = "sniff.tar.1"
	assert.Equal(t, "sniff.tar.1", deepestSignatureID(d))

	assert.Equal(t, "-", deepestSignatureID(&types.Detection{MediaType: types.OctetStream}))
}

func TestRunDetect_WarnsAboutWideSignatures(t *testing.T) {
	resetFlags(t)
	defer resetFlags(t)

	path := filepath.Join(t.TempDir(), "wide.yml")
	require.NoError(t, os.WriteFile(path, []byte(`signatures:
  - id: custom.wide.1
    name: Wide
    media_type: application/x-wide
    value: "WIDE"
    offset: "0:2000000000"
`), 0644))
	detectSignaturesPath = path

	cmd, stdout, stderr := testCmd([]byte("....WIDE"))
	require.NoError(t, runDetect(cmd, nil))
	assert.Contains(t, stderr.String(), "warning: signature custom.wide.1 reaches past 1048576 bytes")
	assert.Equal(t, "-\tapplication/x-wide\tcustom.wide.1\n", stdout.String())
}
