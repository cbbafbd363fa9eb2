package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Cubiaa/waste-yolo/waste"
)

// Store persists history entries to SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// storedObject is the JSON form of waste.Object.
type storedObject struct {
	Class      string     `json:"class"`
	Confidence float32    `json:"confidence"`
	Box        [4]float32 `json:"box"`
	Category   string     `json:"category"`
}

// OpenStore opens (and creates if needed) the database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS detections (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		detected_at TIMESTAMP NOT NULL,
		object_count INTEGER NOT NULL,
		objects TEXT NOT NULL, -- JSON array
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_detections_detected_at ON detections(detected_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save writes e; saving the same ID twice is a no-op.
func (s *Store) Save(ctx context.Context, e Entry) error {
	objects := make([]storedObject, len(e.Objects))
	for i, o := range e.Objects {
		objects[i] = storedObject{
			Class:      o.Class,
			Confidence: o.Confidence,
			Box:        o.Box,
			Category:   string(o.Category),
		}
	}

	objectsJSON, err := json.Marshal(objects)
	if err != nil {
		return fmt.Errorf("failed to marshal objects: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO detections (id, mode, detected_at, object_count, objects)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Mode, e.Time.UTC(), len(e.Objects), string(objectsJSON))
	if err != nil {
		return fmt.Errorf("failed to save detection: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, detected_at, objects
		FROM detections
		ORDER BY detected_at DESC, created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e           Entry
			objectsJSON string
		)
		if err := rows.Scan(&e.ID, &e.Mode, &e.Time, &objectsJSON); err != nil {
			return nil, err
		}

		var objects []storedObject
		if err := json.Unmarshal([]byte(objectsJSON), &objects); err != nil {
			return nil, fmt.Errorf("failed to parse objects for %s: %w", e.ID, err)
		}
		e.Objects = make([]waste.Object, len(objects))
		for i, o := range objects {
			e.Objects[i] = waste.Object{
				Class:      o.Class,
				Confidence: o.Confidence,
				Box:        o.Box,
				Category:   waste.Category(o.Category),
			}
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count detections: %w", err)
	}
	return n, nil
}

// Prune deletes entries older than olderThan.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan).UTC()
	res, err := s.db.ExecContext(ctx, `DELETE FROM detections WHERE detected_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune detections: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
