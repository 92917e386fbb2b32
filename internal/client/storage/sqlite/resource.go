package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
)

const resourceColumns = `id, kind, name, content, revision, base_revision, last_modified, synced, deleted`

// GetResource returns ErrNotFound if the resource does not exist.
// Local tombstones are returned as well, with Deleted set.
func (s *Storage) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	res, err := scanResource(s.db.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, unavailable("get resource", err)
	}
	return res, nil
}

// ListResources returns non-deleted resources
func (s *Storage) ListResources(ctx context.Context) ([]*models.Resource, error) {
	return s.queryResources(ctx, `SELECT `+resourceColumns+` FROM resources WHERE deleted = 0 ORDER BY name, id`)
}

// ListUnsyncedResources returns a snapshot of unsynced rows including tombstones
func (s *Storage) ListUnsyncedResources(ctx context.Context) ([]*models.Resource, error) {
	return s.queryResources(ctx, `SELECT `+resourceColumns+` FROM resources WHERE synced = 0 ORDER BY id`)
}

// SaveLocalEdit stores a local mutation and returns the stored row
func (s *Storage) SaveLocalEdit(ctx context.Context, res *models.Resource, now time.Time) (*models.Resource, error) {
	var saved *models.Resource

	err := s.withTx(ctx, "save resource", func(tx *sql.Tx) error {
		var deleted int
		err := tx.QueryRowContext(ctx, `SELECT deleted FROM resources WHERE id = ?`, res.ID).Scan(&deleted)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `
				INSERT INTO resources (id, kind, name, content, revision, base_revision, last_modified, synced, deleted)
				VALUES (?, ?, ?, ?, 1, 0, ?, 0, 0)
			`, res.ID, string(res.Kind), res.Name, res.Content, toMillis(now))
			if err != nil {
				return fmt.Errorf("failed to insert resource: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to read resource: %w", err)
		case intToBool(deleted):
			return storage.ErrNotFound
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE resources
				SET kind = ?, name = ?, content = ?, revision = revision + 1, last_modified = ?, synced = 0
				WHERE id = ?
			`, string(res.Kind), res.Name, res.Content, toMillis(now), res.ID)
			if err != nil {
				return fmt.Errorf("failed to update resource: %w", err)
			}
		}

		saved, err = scanResource(tx.QueryRowContext(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, res.ID))
		if err != nil {
			return fmt.Errorf("failed to read saved resource: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// MarkResourceDeleted records a local deletion. A resource that never
// reached the server is removed immediately.
func (s *Storage) MarkResourceDeleted(ctx context.Context, id string, now time.Time) error {
	return s.withTx(ctx, "delete resource", func(tx *sql.Tx) error {
		var baseRevision int64
		var deleted int
		err := tx.QueryRowContext(ctx,
			`SELECT base_revision, deleted FROM resources WHERE id = ?`, id,
		).Scan(&baseRevision, &deleted)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("failed to read resource: %w", err)
		}

		if intToBool(deleted) {
			return storage.ErrNotFound
		}

		if baseRevision == 0 {
			_, err = tx.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE resources
				SET deleted = 1, synced = 0, revision = revision + 1, last_modified = ?
				WHERE id = ?
			`, toMillis(now), id)
		}
		if err != nil {
			return fmt.Errorf("failed to delete resource: %w", err)
		}

		return nil
	})
}

// MarkResourcesSynced applies an acknowledged resources round-trip atomically
func (s *Storage) MarkResourcesSynced(ctx context.Context, acked []*models.Resource, merged []*models.Resource, removed []string, syncDate time.Time) error {
	return s.withTx(ctx, "mark resources synced", func(tx *sql.Tx) error {
		for _, r := range acked {
			var err error
			if r.Deleted {
				_, err = tx.ExecContext(ctx,
					`DELETE FROM resources WHERE id = ? AND deleted = 1 AND revision = ?`, r.ID, r.Revision)
			} else {
				// подтвержденная ревизия становится базовой, даже если после снимка были правки
				_, err = tx.ExecContext(ctx, `
					UPDATE resources
					SET base_revision = ?1,
					    synced = CASE WHEN revision = ?1 THEN 1 ELSE 0 END
					WHERE id = ?2
				`, r.Revision, r.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to acknowledge resource %s: %w", r.ID, err)
			}
		}

		for _, r := range merged {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO resources (id, kind, name, content, revision, base_revision, last_modified, synced, deleted)
				VALUES (?1, ?2, ?3, ?4, ?5, ?5, ?6, 1, 0)
				ON CONFLICT (id) DO UPDATE SET
					kind = excluded.kind,
					name = excluded.name,
					content = excluded.content,
					revision = excluded.revision,
					base_revision = excluded.base_revision,
					last_modified = excluded.last_modified,
					deleted = excluded.deleted
				WHERE resources.synced = 1
			`, r.ID, string(r.Kind), r.Name, r.Content, r.Revision, toMillis(r.LastModified))
			if err != nil {
				return fmt.Errorf("failed to merge resource %s: %w", r.ID, err)
			}
		}

		for _, id := range removed {
			if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE id = ? AND synced = 1`, id); err != nil {
				return fmt.Errorf("failed to remove resource %s: %w", id, err)
			}
		}

		return advanceCursor(ctx, tx, models.DomainResources, syncDate)
	})
}

// ReplaceResource overwrites the local copy with the given state exactly
func (s *Storage) ReplaceResource(ctx context.Context, res *models.Resource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (id, kind, name, content, revision, base_revision, last_modified, synced, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			content = excluded.content,
			revision = excluded.revision,
			base_revision = excluded.base_revision,
			last_modified = excluded.last_modified,
			synced = excluded.synced,
			deleted = excluded.deleted
	`,
		res.ID,
		string(res.Kind),
		res.Name,
		res.Content,
		res.Revision,
		res.BaseRevision,
		toMillis(res.LastModified),
		boolToInt(res.Synced),
		boolToInt(res.Deleted),
	)
	if err != nil {
		return unavailable("replace resource", err)
	}
	return nil
}

// PurgeResource removes the row entirely
func (s *Storage) PurgeResource(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id); err != nil {
		return unavailable("purge resource", err)
	}
	return nil
}

func (s *Storage) queryResources(ctx context.Context, query string, args ...any) ([]*models.Resource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query resources", err)
	}
	defer rows.Close()

	var result []*models.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, unavailable("scan resource", err)
		}
		result = append(result, res)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate resources", err)
	}

	return result, nil
}

func scanResource(row rowScanner) (*models.Resource, error) {
	res := &models.Resource{}
	var kind string
	var lastModified int64
	var synced, deleted int

	err := row.Scan(
		&res.ID,
		&kind,
		&res.Name,
		&res.Content,
		&res.Revision,
		&res.BaseRevision,
		&lastModified,
		&synced,
		&deleted,
	)
	if err != nil {
		return nil, err
	}

	res.Kind = models.ResourceKind(kind)
	res.LastModified = fromMillis(lastModified)
	res.Synced = intToBool(synced)
	res.Deleted = intToBool(deleted)
	return res, nil
}
