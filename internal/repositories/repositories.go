// package repositories provides SQLite persistence for session history.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// sequenced lists the tables that carry a "<table>_sequence" counter.
var sequenced = map[string]bool{
	"playlist_creations": true,
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give history entries a stable, human-readable order (e.g., creation #12)
// independent of UUIDs and timestamps.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}
