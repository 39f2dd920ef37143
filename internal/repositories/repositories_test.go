package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spm/internal/models"
	"github.com/desertthunder/spm/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newRecord(name string, status models.CreationStatus, requested, confirmed int) *models.CreationRecord {
	return &models.CreationRecord{
		PlaylistID: "pl-" + name,
		Name:       name,
		URL:        "https://open.spotify.com/playlist/pl-" + name,
		Public:     true,
		Requested:  requested,
		Confirmed:  confirmed,
		Status:     status,
	}
}

func TestNextSequence(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(ctx, db, "playlist_creations")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	t.Run("unknown table", func(t *testing.T) {
		if _, err := NextSequence(ctx, db, "users; DROP TABLE playlist_creations"); err == nil {
			t.Fatal("expected error for a table without a sequence")
		}
	})
}

func TestCreationRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordCreation", func(t *testing.T) {
		repo := NewCreationRepository(setupTestDB(t))
		rec := newRecord("Road Trip", models.CreationComplete, 3, 3)

		if err := repo.RecordCreation(ctx, rec); err != nil {
			t.Fatalf("failed to record creation: %v", err)
		}
		if rec.ID == "" || rec.Sequence != 1 {
			t.Errorf("expected ID and sequence to be set, got %q #%d", rec.ID, rec.Sequence)
		}
		if rec.CreatedAt.IsZero() {
			t.Error("expected created_at to default to now")
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		repo := NewCreationRepository(setupTestDB(t))

		tests := []struct {
			name string
			rec  *models.CreationRecord
		}{
			{"empty name", newRecord("", models.CreationComplete, 1, 1)},
			{"confirmed above requested", newRecord("x", models.CreationComplete, 1, 2)},
			{"unknown status", newRecord("x", models.CreationStatus("lost"), 1, 1)},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := repo.RecordCreation(ctx, tt.rec); !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewCreationRepository(setupTestDB(t))
		rec := newRecord("Partial", models.CreationPartial, 250, 100)
		rec.Error = "chunk 2 of 3: 502"
		rec.Public = false
		rec.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		if err := repo.RecordCreation(ctx, rec); err != nil {
			t.Fatalf("failed to record creation: %v", err)
		}

		got, err := repo.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.Name != rec.Name || got.Status != models.CreationPartial || got.Confirmed != 100 || got.Requested != 250 {
			t.Errorf("unexpected record %+v", got)
		}
		if got.Public || got.Error != rec.Error {
			t.Errorf("expected public=false and error to round trip, got %+v", got)
		}
		if !got.CreatedAt.Equal(rec.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", rec.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewCreationRepository(setupTestDB(t))

		if _, err := repo.Get(ctx, "nonexistent-id"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
		if _, err := repo.GetByPlaylistID(ctx, "nope"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("GetByPlaylistID", func(t *testing.T) {
		repo := NewCreationRepository(setupTestDB(t))

		first := newRecord("Retry", models.CreationPartial, 10, 5)
		second := newRecord("Retry", models.CreationComplete, 10, 10)
		for _, rec := range []*models.CreationRecord{first, second} {
			if err := repo.RecordCreation(ctx, rec); err != nil {
				t.Fatalf("failed to record creation: %v", err)
			}
		}

		got, err := repo.GetByPlaylistID(ctx, "pl-Retry")
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.ID != second.ID {
			t.Errorf("expected the most recent record, got #%d", got.Sequence)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewCreationRepository(setupTestDB(t))
		for _, rec := range []*models.CreationRecord{
			newRecord("a", models.CreationComplete, 1, 1),
			newRecord("b", models.CreationPartial, 4, 2),
			newRecord("c", models.CreationFailed, 2, 0),
			newRecord("d", models.CreationComplete, 3, 3),
		} {
			if err := repo.RecordCreation(ctx, rec); err != nil {
				t.Fatalf("failed to record creation: %v", err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []string
		}{
			{"all newest first", nil, []string{"d", "c", "b", "a"}},
			{"limit", map[string]any{"limit": 2}, []string{"d", "c"}},
			{"typed status", map[string]any{"status": models.CreationComplete}, []string{"d", "a"}},
			{"string status", map[string]any{"status": "partial"}, []string{"b"}},
			{"empty status ignored", map[string]any{"status": ""}, []string{"d", "c", "b", "a"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				records, err := repo.List(ctx, tt.criteria)
				if err != nil {
					t.Fatalf("failed to list records: %v", err)
				}

				if len(records) != len(tt.want) {
					t.Fatalf("expected %d records, got %d", len(tt.want), len(records))
				}
				for i, rec := range records {
					if rec.Name != tt.want[i] {
						t.Errorf("record %d: expected %s, got %s", i, tt.want[i], rec.Name)
					}
				}
			})
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCreationRepository(db)
		db.Close()

		if err := repo.RecordCreation(ctx, newRecord("x", models.CreationComplete, 1, 1)); err == nil {
			t.Error("expected error recording to a closed database")
		}
		if _, err := repo.List(ctx, nil); err == nil {
			t.Error("expected error listing a closed database")
		}
	})
}
