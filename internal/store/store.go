// Package store persists VideoAsset lifecycle metadata in SQLite, adapted
// from a sqlite-backed store package (same Open/WAL/Migrate shape,
// generalized from camera/motion-event rows to one video-asset table).
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no row matches the requested id.
var ErrNotFound = errors.New("store: asset not found")

// Status is a VideoAssetRecord's lifecycle state.
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusAnalyzing Status = "analyzing"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
)

// VideoAssetRecord is the persisted row backing one stored video asset.
type VideoAssetRecord struct {
	ID             string
	InputPath      string
	Status         Status
	FPS            float64
	Width          int
	Height         int
	FrameCount     int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Store wraps a SQLite handle holding the asset table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at dbPath with WAL
// mode enabled, mirroring a database.New constructor.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS video_assets (
		id TEXT PRIMARY KEY,
		input_path TEXT NOT NULL,
		status TEXT NOT NULL,
		fps REAL DEFAULT 0,
		width INTEGER DEFAULT 0,
		height INTEGER DEFAULT 0,
		frame_count INTEGER DEFAULT 0,
		created_at DATETIME NOT NULL,
		last_accessed_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create inserts a row with status "uploaded".
func (s *Store) Create(id, inputPath string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO video_assets (id, input_path, status, created_at, last_accessed_at) VALUES (?, ?, ?, ?, ?)`,
		id, inputPath, StatusUploaded, now, now,
	)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", id, err)
	}
	return nil
}

// SetMetadata records fps/width/height/frameCount once the decoder has
// opened the file, and advances status to "analyzing" if still "uploaded".
func (s *Store) SetMetadata(id string, fps float64, width, height, frameCount int) error {
	_, err := s.db.Exec(
		`UPDATE video_assets SET fps = ?, width = ?, height = ?, frame_count = ?,
		 status = CASE WHEN status = ? THEN ? ELSE status END WHERE id = ?`,
		fps, width, height, frameCount, StatusUploaded, StatusAnalyzing, id,
	)
	if err != nil {
		return fmt.Errorf("store: set metadata %s: %w", id, err)
	}
	return nil
}

// SetStatus updates an asset's lifecycle status.
func (s *Store) SetStatus(id string, status Status) error {
	_, err := s.db.Exec(`UPDATE video_assets SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("store: set status %s: %w", id, err)
	}
	return nil
}

// Touch updates last_accessed_at so an active video is never swept.
func (s *Store) Touch(id string) error {
	_, err := s.db.Exec(`UPDATE video_assets SET last_accessed_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("store: touch %s: %w", id, err)
	}
	return nil
}

// Get retrieves one asset by id, or ErrNotFound.
func (s *Store) Get(id string) (VideoAssetRecord, error) {
	var rec VideoAssetRecord
	err := s.db.QueryRow(
		`SELECT id, input_path, status, fps, width, height, frame_count, created_at, last_accessed_at
		 FROM video_assets WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.InputPath, &rec.Status, &rec.FPS, &rec.Width, &rec.Height, &rec.FrameCount,
		&rec.CreatedAt, &rec.LastAccessedAt)
	if err == sql.ErrNoRows {
		return VideoAssetRecord{}, ErrNotFound
	}
	if err != nil {
		return VideoAssetRecord{}, fmt.Errorf("store: get %s: %w", id, err)
	}
	return rec, nil
}

// ListStale returns every asset whose last_accessed_at is older than
// olderThan, for the retention sweeper.
func (s *Store) ListStale(olderThan time.Duration) ([]VideoAssetRecord, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	rows, err := s.db.Query(
		`SELECT id, input_path, status, fps, width, height, frame_count, created_at, last_accessed_at
		 FROM video_assets WHERE last_accessed_at < ?`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list stale: %w", err)
	}
	defer rows.Close()

	var out []VideoAssetRecord
	for rows.Next() {
		var rec VideoAssetRecord
		if err := rows.Scan(&rec.ID, &rec.InputPath, &rec.Status, &rec.FPS, &rec.Width, &rec.Height,
			&rec.FrameCount, &rec.CreatedAt, &rec.LastAccessedAt); err != nil {
			return nil, fmt.Errorf("store: scan stale row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes the row for id. The caller is responsible for deleting
// the backing files separately.
func (s *Store) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM video_assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	return nil
}
