// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/videoflix/renditiond/internal/media"
)

// ErrNotFound is returned when no record exists for the given id.
var ErrNotFound = errors.New("record not found")

// RecordStore is the system-of-record for media records. All writes go
// through partial updates so untouched columns are never clobbered.
type RecordStore struct {
	db *sql.DB
}

// New wraps an opened database. Call Migrate before first use.
func New(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Create inserts a fresh record. The id must be unique.
func (s *RecordStore) Create(ctx context.Context, rec *media.Record) error {
	renditions, err := json.Marshal(rec.Renditions)
	if err != nil {
		return fmt.Errorf("encode renditions: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO media_records
			(id, source_path, preferred_rendition_path, hero_image_path, thumbnail_image_path, duration_seconds, renditions, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourcePath, rec.PreferredRenditionPath, rec.HeroImagePath,
		rec.ThumbnailImagePath, rec.DurationSeconds, string(renditions), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

// Load fetches a record by id. Returns ErrNotFound when it does not exist.
func (s *RecordStore) Load(ctx context.Context, id string) (*media.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_path, preferred_rendition_path, hero_image_path, thumbnail_image_path, duration_seconds, renditions, created_at
		FROM media_records WHERE id = ?`, id)

	var rec media.Record
	var renditions string
	err := row.Scan(&rec.ID, &rec.SourcePath, &rec.PreferredRenditionPath,
		&rec.HeroImagePath, &rec.ThumbnailImagePath, &rec.DurationSeconds,
		&renditions, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(renditions), &rec.Renditions); err != nil {
		return nil, fmt.Errorf("decode renditions for %s: %w", id, err)
	}
	return &rec, nil
}

// Update applies a partial update. Only non-nil fields are written; a zero
// Fields value is a no-op.
func (s *RecordStore) Update(ctx context.Context, id string, fields media.Fields) error {
	if fields.IsZero() {
		return nil
	}

	set := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(column string, value any) {
		set = append(set, column+" = ?")
		args = append(args, value)
	}

	if fields.SourcePath != nil {
		add("source_path", *fields.SourcePath)
	}
	if fields.PreferredRenditionPath != nil {
		add("preferred_rendition_path", *fields.PreferredRenditionPath)
	}
	if fields.HeroImagePath != nil {
		add("hero_image_path", *fields.HeroImagePath)
	}
	if fields.ThumbnailImagePath != nil {
		add("thumbnail_image_path", *fields.ThumbnailImagePath)
	}
	if fields.DurationSeconds != nil {
		add("duration_seconds", *fields.DurationSeconds)
	}
	if fields.Renditions != nil {
		encoded, err := json.Marshal(*fields.Renditions)
		if err != nil {
			return fmt.Errorf("encode renditions: %w", err)
		}
		add("renditions", string(encoded))
	}

	query := "UPDATE media_records SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = ?"
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record %s: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes the record and returns the field snapshot cleanup needs.
// The snapshot is taken before the row disappears.
func (s *RecordStore) Delete(ctx context.Context, id string) (media.Snapshot, error) {
	rec, err := s.Load(ctx, id)
	if err != nil {
		return media.Snapshot{}, err
	}
	snap := rec.Snapshot()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM media_records WHERE id = ?`, id); err != nil {
		return media.Snapshot{}, fmt.Errorf("delete record %s: %w", id, err)
	}
	return snap, nil
}
