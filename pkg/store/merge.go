package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	DetectionsMerged int
	SourcesProcessed int
	// Sources holds per-database counts in the order they were merged.
	Sources []SourceStats
	// Total is the number of detections in the destination afterwards.
	Total int
}

// SourceStats counts the detections read from one source and how many of
// them were written. A detection older than the one already stored for the
// same path is read but not written.
type SourceStats struct {
	Path   string
	Read   int
	Merged int
}

// Merge combines multiple sniff databases into one.
// When several databases hold the same path, the most recent detection wins.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}
	for _, src := range cfg.SourcePaths {
		if samePath(src, cfg.DestPath) {
			return nil, fmt.Errorf("destination %s is also a source", cfg.DestPath)
		}
	}

	// Open/create destination database
	destDB, err := openSQLite(cfg.DestPath)
	if err != nil {
		return nil, err
	}
	defer destDB.Close()

	// Initialize schema on destination
	if err := CreateSchema(destDB); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}

	// Process each source database
	for _, sourcePath := range cfg.SourcePaths {
		src, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.Sources = append(stats.Sources, src)
		stats.DetectionsMerged += src.Merged
		stats.SourcesProcessed++
	}

	if err := destDB.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&stats.Total); err != nil {
		return stats, fmt.Errorf("counting detections: %w", err)
	}
	return stats, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// mergeFrom copies detections from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string) (SourceStats, error) {
	stats := SourceStats{Path: sourcePath}

	// Opening a missing file would silently create an empty database.
	if _, err := os.Stat(sourcePath); err != nil {
		return stats, err
	}

	sourceDB, err := openSQLite(sourcePath)
	if err != nil {
		return stats, err
	}
	defer sourceDB.Close()

	tx, err := destDB.Begin()
	if err != nil {
		return stats, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := mergeDetections(tx, sourceDB, &stats); err != nil {
		return stats, fmt.Errorf("merging detections: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing transaction: %w", err)
	}
	return stats, nil
}

func mergeDetections(tx *sql.Tx, sourceDB *sql.DB, stats *SourceStats) error {
	rows, err := sourceDB.Query(`
		SELECT path, size, media_type, signature_id, inner_json, detected_at
		FROM detections
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	stmt, err := tx.Prepare(`
		INSERT INTO detections (path, size, media_type, signature_id, inner_json, detected_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			media_type = excluded.media_type,
			signature_id = excluded.signature_id,
			inner_json = excluded.inner_json,
			detected_at = excluded.detected_at
		WHERE excluded.detected_at > detections.detected_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for rows.Next() {
		var path, mediaType string
		var size, detectedAt int64
		var signatureID, innerJSON sql.NullString
		if err := rows.Scan(&path, &size, &mediaType, &signatureID, &innerJSON, &detectedAt); err != nil {
			return err
		}
		stats.Read++
		result, err := stmt.Exec(path, size, mediaType, signatureID, innerJSON, detectedAt)
		if err != nil {
			return err
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			stats.Merged++
		}
	}
	return rows.Err()
}
