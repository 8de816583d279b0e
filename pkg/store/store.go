package store

import (
	"fmt"

	"github.com/praetorian-inc/sniff/pkg/types"
)

// Store provides persistence for detection results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (SQLite, in-memory).
type Store interface {
	// AddDetection stores a detection, replacing any earlier detection of
	// the same path.
	AddDetection(d *types.Detection) error

	// GetDetections retrieves all detections ordered by path.
	GetDetections() ([]*types.Detection, error)

	// GetDetection retrieves the detection of path, or nil if none exists.
	GetDetection(path string) (*types.Detection, error)

	// DetectionExists checks if path was already detected at this size.
	DetectionExists(path string, size int64) (bool, error)

	// CountByMediaType counts detections by their outermost media type.
	CountByMediaType() (map[string]int, error)

	// Close closes the underlying storage.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a new Store. ":memory:" yields a MemoryStore, any other path
// a SQLite database.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}

	return NewSQLite(cfg.Path)
}
