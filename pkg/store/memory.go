package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/sniff/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu         sync.RWMutex
	detections map[string]*types.Detection // keyed by path
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		detections: make(map[string]*types.Detection),
	}
}

// AddDetection stores a copy of d, replacing any earlier one for the path.
func (m *MemoryStore) AddDetection(d *types.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detections[d.Path] = cloneDetection(d)
	return nil
}

// GetDetections retrieves all detections ordered by path.
func (m *MemoryStore) GetDetections() ([]*types.Detection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Detection, 0, len(m.detections))
	for _, d := range m.detections {
		result = append(result, cloneDetection(d))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Path < result[j].Path
	})
	return result, nil
}

// GetDetection retrieves the detection of path, or nil if none exists.
func (m *MemoryStore) GetDetection(path string) (*types.Detection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.detections[path]
	if !ok {
		return nil, nil
	}
	return cloneDetection(d), nil
}

// DetectionExists checks if path was already detected at this size.
func (m *MemoryStore) DetectionExists(path string, size int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.detections[path]
	return ok && d.Size == size, nil
}

// CountByMediaType counts detections by their outermost media type.
func (m *MemoryStore) CountByMediaType() (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, d := range m.detections {
		counts[d.MediaType.String()]++
	}
	return counts, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// cloneDetection copies d and its inner chain so callers cannot modify
// stored records.
func cloneDetection(d *types.Detection) *types.Detection {
	if d == nil {
		return nil
	}
	c := *d
	c.Inner = cloneDetection(d.Inner)
	return &c
}
