package storage

import (
	"context"
	"time"

	"github.com/iudanet/gamesync/internal/models"
)

// CursorStorage хранит курсоры синхронизации по доменам
type CursorStorage interface {
	// GetCursor returns the last server-acknowledged sync date of the domain.
	// Zero time means the domain was never synchronized.
	GetCursor(ctx context.Context, domain models.Domain) (time.Time, error)
}

// HighscoreStorage persistence of highscore rows
type HighscoreStorage interface {
	CursorStorage

	// GetHighscore returns ErrNotFound if no row exists for the level
	GetHighscore(ctx context.Context, levelID string) (*models.Highscore, error)

	// ListHighscores returns every highscore row
	ListHighscores(ctx context.Context) ([]*models.Highscore, error)

	// SetHighscoreIfHigher atomically stores score when it strictly beats the
	// stored one, incrementing the revision and clearing the synced flag.
	// Returns false when nothing was written.
	SetHighscoreIfHigher(ctx context.Context, levelID string, score int64, now time.Time) (bool, error)

	// ListUnsyncedHighscores returns a snapshot of unsynced rows
	ListUnsyncedHighscores(ctx context.Context) ([]*models.Highscore, error)

	// MarkHighscoresSynced marks acknowledged revisions synced, applies the
	// server-merged rows and advances the cursor in one transaction
	MarkHighscoresSynced(ctx context.Context, acked []*models.Highscore, merged []*models.Highscore, syncDate time.Time) error
}

// StatStorage persistence of counters and tag events
type StatStorage interface {
	CursorStorage

	// GetStat returns ErrNotFound if no row exists for the level
	GetStat(ctx context.Context, levelID string) (*models.Stat, error)

	// ListStats returns every stat row
	ListStats(ctx context.Context) ([]*models.Stat, error)

	// IncrementCounter applies delta to one counter in one transaction:
	// total, delta and revision move together and the row becomes unsynced.
	// Plays also update last_played.
	IncrementCounter(ctx context.Context, levelID string, counter models.StatCounter, delta int64, now time.Time) (*models.Stat, error)

	// ClaimUnsyncedStats pins the current deltas and revision of every unsynced
	// row that has no pinned snapshot yet and returns all pinned snapshots.
	// Pinned snapshots survive failed attempts and are resent unchanged.
	ClaimUnsyncedStats(ctx context.Context) ([]*models.PendingStat, error)

	// MarkStatsSynced subtracts the pinned deltas of acknowledged rows, applies
	// server totals, marks the rows synced when their revision did not move,
	// marks the submitted events synced and advances the cursor atomically.
	MarkStatsSynced(ctx context.Context, acked []*models.PendingStat, totals []*models.StatTotals, eventIDs []string, syncDate time.Time) error

	// AddEvent stores a tag event for the level
	AddEvent(ctx context.Context, event *models.StatEvent) error

	// ListUnsyncedEvents returns events not yet acknowledged by the server
	ListUnsyncedEvents(ctx context.Context) ([]*models.StatEvent, error)

	// PruneEvents deletes synced events created before the cutoff
	PruneEvents(ctx context.Context, before time.Time) (int, error)
}

// ResourceStorage persistence of user resources (levels, actors)
type ResourceStorage interface {
	CursorStorage

	// GetResource returns ErrNotFound if the resource does not exist
	GetResource(ctx context.Context, id string) (*models.Resource, error)

	// ListResources returns non-deleted resources
	ListResources(ctx context.Context) ([]*models.Resource, error)

	// SaveLocalEdit stores a local mutation: revision is incremented and the row
	// becomes unsynced. Creates the row when absent.
	SaveLocalEdit(ctx context.Context, res *models.Resource, now time.Time) (*models.Resource, error)

	// MarkResourceDeleted records a local deletion as an unsynced tombstone
	MarkResourceDeleted(ctx context.Context, id string, now time.Time) error

	// ListUnsyncedResources returns a snapshot of unsynced rows including tombstones
	ListUnsyncedResources(ctx context.Context) ([]*models.Resource, error)

	// MarkResourcesSynced marks acknowledged revisions synced (purging acknowledged
	// tombstones), applies server copies and removals, and advances the cursor atomically.
	// Server copies never overwrite a row with unsynced local edits.
	MarkResourcesSynced(ctx context.Context, acked []*models.Resource, merged []*models.Resource, removed []string, syncDate time.Time) error

	// ReplaceResource overwrites the local copy with the given server state
	// exactly, including revision and synced flag
	ReplaceResource(ctx context.Context, res *models.Resource) error

	// PurgeResource removes the row entirely
	PurgeResource(ctx context.Context, id string) error
}

// Store is the full Local Persistent Store
type Store interface {
	HighscoreStorage
	StatStorage
	ResourceStorage

	// Wipe removes every row and cursor
	Wipe(ctx context.Context) error

	Close() error
}
