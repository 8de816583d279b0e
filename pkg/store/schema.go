package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	if err := createDetectionsTable(db); err != nil {
		return fmt.Errorf("creating detections table: %w", err)
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Insert version if table is empty
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, SchemaVersion)
	}

	return nil
}

func createDetectionsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS detections (
			path TEXT PRIMARY KEY NOT NULL,
			size INTEGER NOT NULL,
			media_type TEXT NOT NULL,
			signature_id TEXT,
			inner_json TEXT,
			detected_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Reports group by media type
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_detections_media_type ON detections(media_type)
	`)
	return err
}
