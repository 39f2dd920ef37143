package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/shared"
)

const creationColumns = `id, sequence, playlist_id, name, url, public, requested, confirmed, status, error, created_at`

// CreationRepository persists playlist creation attempts.
//
// Implements session.Recorder so every create, complete or partial, leaves a trace.
type CreationRepository struct {
	db *sql.DB
}

// NewCreationRepository creates a new CreationRepository with the given database connection
func NewCreationRepository(db *sql.DB) *CreationRepository {
	return &CreationRepository{db: db}
}

// RecordCreation inserts rec with a generated ID and sequence.
func (r *CreationRepository) RecordCreation(ctx context.Context, rec *models.CreationRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	sequence, err := NextSequence(ctx, r.db, "playlist_creations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rec.ID = shared.GenerateID()
	rec.Sequence = sequence
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO playlist_creations (` + creationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.Sequence,
		rec.PlaylistID,
		rec.Name,
		rec.URL,
		rec.Public,
		rec.Requested,
		rec.Confirmed,
		string(rec.Status),
		rec.Error,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert creation record: %w", err)
	}

	return nil
}

// Get retrieves a record by ID.
func (r *CreationRepository) Get(ctx context.Context, id string) (*models.CreationRecord, error) {
	query := `SELECT ` + creationColumns + ` FROM playlist_creations WHERE id = ?`
	return r.scan(r.db.QueryRowContext(ctx, query, id))
}

// GetByPlaylistID returns the most recent record for a remote playlist.
func (r *CreationRepository) GetByPlaylistID(ctx context.Context, playlistID string) (*models.CreationRecord, error) {
	query := `SELECT ` + creationColumns + ` FROM playlist_creations WHERE playlist_id = ? ORDER BY sequence DESC LIMIT 1`
	return r.scan(r.db.QueryRowContext(ctx, query, playlistID))
}

// List returns records newest first.
//
// Supported criteria: "status" ([models.CreationStatus] or string) and "limit" (int, 0 means all).
func (r *CreationRepository) List(ctx context.Context, criteria map[string]any) ([]*models.CreationRecord, error) {
	query := `SELECT ` + creationColumns + ` FROM playlist_creations WHERE 1 = 1`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.CreationStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query creation records: %w", err)
	}
	defer rows.Close()

	var records []*models.CreationRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *CreationRepository) scan(row scanner) (*models.CreationRecord, error) {
	var (
		rec    models.CreationRecord
		status string
	)

	err := row.Scan(
		&rec.ID,
		&rec.Sequence,
		&rec.PlaylistID,
		&rec.Name,
		&rec.URL,
		&rec.Public,
		&rec.Requested,
		&rec.Confirmed,
		&status,
		&rec.Error,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no creation record", shared.ErrPlaylistNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan creation record: %w", err)
	}

	rec.Status = models.CreationStatus(status)
	return &rec, nil
}
