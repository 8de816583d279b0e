package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/praetorian-inc/sniff/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var detectedAt = time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)

func gzipTar(path string, size int64) *types.Detection {
	return &types.Detection{
		Path:        path,
		Size:        size,
		MediaType:   types.MustParseMediaType("application/gzip"),
		SignatureID: "sniff.gzip.1",
		DetectedAt:  detectedAt,
		Inner: &types.Detection{
			MediaType:   types.MustParseMediaType("application/x-tar"),
			SignatureID: "sniff.tar.1",
			DetectedAt:  detectedAt,
		},
	}
}

func unknown(path string, size int64) *types.Detection {
	return &types.Detection{
		Path:       path,
		Size:       size,
		MediaType:  types.OctetStream,
		DetectedAt: detectedAt,
	}
}

// backends returns a fresh instance of every Store implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
	}
}

func TestNew(t *testing.T) {
	s, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(Config{Path: filepath.Join(t.TempDir(), "sniff.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = New(Config{})
	assert.Error(t, err)
}

func TestStore_Interface(t *testing.T) {
	var _ Store = (*SQLiteStore)(nil)
	var _ Store = (*MemoryStore)(nil)
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddDetection(gzipTar("b/archive.tgz", 300)))
			require.NoError(t, s.AddDetection(unknown("a/notes.txt", 12)))

			got, err := s.GetDetection("b/archive.tgz")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, gzipTar("b/archive.tgz", 300), got)

			got, err = s.GetDetection("a/notes.txt")
			require.NoError(t, err)
			assert.Equal(t, unknown("a/notes.txt", 12), got)
			assert.Empty(t, got.SignatureID)
			assert.Nil(t, got.Inner)

			all, err := s.GetDetections()
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "a/notes.txt", all[0].Path)
			assert.Equal(t, "b/archive.tgz", all[1].Path)
		})
	}
}

func TestStore_GetDetectionMissing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.GetDetection("nope")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStore_Replace(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddDetection(unknown("file", 10)))
			require.NoError(t, s.AddDetection(gzipTar("file", 20)))

			all, err := s.GetDetections()
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "application/gzip", all[0].MediaType.String())
			assert.Equal(t, int64(20), all[0].Size)
		})
	}
}

func TestStore_DetectionExists(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddDetection(unknown("file", 10)))

			exists, err := s.DetectionExists("file", 10)
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = s.DetectionExists("file", 11)
			require.NoError(t, err)
			assert.False(t, exists, "a size change means the file must be sniffed again")

			exists, err = s.DetectionExists("other", 10)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestStore_CountByMediaType(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.AddDetection(gzipTar("a.tgz", 1)))
			require.NoError(t, s.AddDetection(gzipTar("b.tgz", 2)))
			require.NoError(t, s.AddDetection(unknown("c", 3)))

			counts, err := s.CountByMediaType()
			require.NoError(t, err)
			assert.Equal(t, map[string]int{
				"application/gzip":         2,
				"application/octet-stream": 1,
			}, counts)
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	s := NewMemory()
	d := gzipTar("x", 1)
	require.NoError(t, s.AddDetection(d))

	d.Inner.SignatureID = "changed"
	got, err := s.GetDetection("x")
	require.NoError(t, err)
	assert.Equal(t, "sniff.tar.1", got.Inner.SignatureID)

	got.Path = "mutated"
	again, err := s.GetDetection("x")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Path)
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sniff.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.AddDetection(gzipTar("kept", 5)))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetDetection("kept")
	require.NoError(t, err)
	assert.Equal(t, gzipTar("kept", 5), got)
}
