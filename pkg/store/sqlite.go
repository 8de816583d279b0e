package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/praetorian-inc/sniff/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// openSQLite opens a database with the pure Go driver. A single connection
// serializes writers, which SQLite requires anyway.
func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// AddDetection stores a detection, replacing any earlier one for the path.
func (s *SQLiteStore) AddDetection(d *types.Detection) error {
	innerJSON, err := marshalInner(d.Inner)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO detections (path, size, media_type, signature_id, inner_json, detected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			media_type = excluded.media_type,
			signature_id = excluded.signature_id,
			inner_json = excluded.inner_json,
			detected_at = excluded.detected_at
	`,
		d.Path,
		d.Size,
		d.MediaType.String(),
		nullString(d.SignatureID),
		innerJSON,
		d.DetectedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting detection: %w", err)
	}
	return nil
}

// GetDetections retrieves all detections ordered by path.
func (s *SQLiteStore) GetDetections() ([]*types.Detection, error) {
	rows, err := s.db.Query(`
		SELECT path, size, media_type, signature_id, inner_json, detected_at
		FROM detections
		ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying detections: %w", err)
	}
	defer rows.Close()

	var detections []*types.Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// GetDetection retrieves the detection of path, or nil if none exists.
func (s *SQLiteStore) GetDetection(path string) (*types.Detection, error) {
	row := s.db.QueryRow(`
		SELECT path, size, media_type, signature_id, inner_json, detected_at
		FROM detections
		WHERE path = ?
	`, path)

	d, err := scanDetection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// DetectionExists checks if path was already detected at this size.
func (s *SQLiteStore) DetectionExists(path string, size int64) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM detections WHERE path = ? AND size = ?", path, size).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking detection: %w", err)
	}
	return count > 0, nil
}

// CountByMediaType counts detections by their outermost media type.
func (s *SQLiteStore) CountByMediaType() (map[string]int, error) {
	rows, err := s.db.Query("SELECT media_type, COUNT(*) FROM detections GROUP BY media_type")
	if err != nil {
		return nil, fmt.Errorf("counting detections: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mt string
		var n int
		if err := rows.Scan(&mt, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[mt] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetection(row rowScanner) (*types.Detection, error) {
	var (
		d           types.Detection
		mediaType   string
		signatureID sql.NullString
		innerJSON   sql.NullString
		detectedAt  int64
	)
	if err := row.Scan(&d.Path, &d.Size, &mediaType, &signatureID, &innerJSON, &detectedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning detection: %w", err)
	}

	mt, err := types.ParseMediaType(mediaType)
	if err != nil {
		return nil, fmt.Errorf("detection %s: %w", d.Path, err)
	}
	d.MediaType = mt
	d.SignatureID = signatureID.String
	d.DetectedAt = time.Unix(0, detectedAt).UTC()

	if innerJSON.Valid && innerJSON.String != "" {
		var inner types.Detection
		if err := json.Unmarshal([]byte(innerJSON.String), &inner); err != nil {
			return nil, fmt.Errorf("detection %s: unmarshaling inner: %w", d.Path, err)
		}
		d.Inner = &inner
	}
	return &d, nil
}

func marshalInner(inner *types.Detection) (any, error) {
	if inner == nil {
		return nil, nil
	}
	data, err := json.Marshal(inner)
	if err != nil {
		return nil, fmt.Errorf("marshaling inner detection: %w", err)
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
