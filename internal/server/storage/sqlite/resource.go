package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang/snappy"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/storage"
)

// resourceHead текущее состояние ресурса на сервере
type resourceHead struct {
	updatedAt time.Time
	latest    int64
	deleted   bool
}

// SyncResources accepts a resource when its base revision equals the server's
// latest revision, or when exactly this revision is already stored
// (re-delivery after a lost response). Everything else is a conflict.
// Entries with Deleted set are deletions and follow the same base revision rule;
// deleting an already deleted or unknown resource is a no-op.
// Accepted entries are committed even if other entries conflict.
func (s *Storage) SyncResources(ctx context.Context, userID string, resources []*models.Resource, since, now time.Time) (*storage.ResourceSyncResult, error) {
	result := &storage.ResourceSyncResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		accepted := make(map[string]bool, len(resources))

		for _, r := range resources {
			head, err := getHead(ctx, tx, userID, r.ID)
			if err != nil {
				return err
			}

			if r.Deleted {
				if head != nil && !head.deleted && r.BaseRevision != head.latest {
					// удаление на устаревшей базе стерло бы чужую правку
					conflict, err := conflictFor(ctx, tx, userID, r.ID, r.BaseRevision, head)
					if err != nil {
						return err
					}
					result.Conflicts = append(result.Conflicts, conflict)
					continue
				}
				if err := markDeleted(ctx, tx, userID, r.ID, now); err != nil {
					return err
				}
				accepted[r.ID] = true
				continue
			}

			redelivered, err := isRedelivery(ctx, tx, userID, r, head)
			if err != nil {
				return err
			}

			if !redelivered {
				if head != nil && (r.BaseRevision != head.latest || r.Revision <= head.latest) {
					conflict, err := conflictFor(ctx, tx, userID, r.ID, r.BaseRevision, head)
					if err != nil {
						return err
					}
					result.Conflicts = append(result.Conflicts, conflict)
					continue
				}
				if head == nil && r.BaseRevision != 0 {
					// клиент считает ресурс загруженным, а сервер его не знает
					result.Conflicts = append(result.Conflicts, &models.ConflictRecord{
						ResourceID:       r.ID,
						FromRevision:     r.BaseRevision + 1,
						FromDate:         now,
						LatestServerDate: now,
					})
					continue
				}

				if err := putRevision(ctx, tx, userID, r, r.Revision, now); err != nil {
					return err
				}
			}

			accepted[r.ID] = true
			stored := r.Clone()
			stored.BaseRevision = stored.Revision
			stored.Synced = true
			if !redelivered {
				stored.LastModified = now
			}
			result.Resources = append(result.Resources, stored)
		}

		changed, removed, err := changedSince(ctx, tx, userID, since)
		if err != nil {
			return err
		}
		for _, r := range changed {
			if !accepted[r.ID] {
				result.Resources = append(result.Resources, r)
			}
		}
		result.Removed = removed

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// FixConflicts applies the user's decision. When any conflicted resource
// moved on after the conflict was reported, nothing is applied and
// Changed is set.
func (s *Storage) FixConflicts(ctx context.Context, userID string, fix *storage.ConflictFix, now time.Time) (*storage.ConflictFixResult, error) {
	result := &storage.ConflictFixResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		heads := make(map[string]*resourceHead, len(fix.Conflicts))
		for id, c := range fix.Conflicts {
			head, err := getHead(ctx, tx, userID, id)
			if err != nil {
				return err
			}
			if head != nil && head.updatedAt.After(c.LatestServerDate) {
				result.Changed = true
				return nil
			}
			heads[id] = head
		}

		if fix.KeepClient {
			result.Accepted = make(map[string]int64, len(fix.Resources))
			for _, r := range fix.Resources {
				head, ok := heads[r.ID]
				if !ok {
					continue
				}
				if r.Deleted {
					// клиент настоял на удалении
					if err := markDeleted(ctx, tx, userID, r.ID, now); err != nil {
						return err
					}
					result.Remove = append(result.Remove, r.ID)
					continue
				}
				var revision int64 = 1
				if head != nil {
					revision = head.latest + 1
				}
				if err := putRevision(ctx, tx, userID, r, revision, now); err != nil {
					return err
				}
				result.Accepted[r.ID] = revision
			}
			return nil
		}

		result.Download = make(map[string][]models.RevisionRef, len(heads))
		for id, head := range heads {
			if head == nil || head.deleted {
				result.Remove = append(result.Remove, id)
				continue
			}
			refs, err := revisionRefs(ctx, tx, userID, id, fix.Conflicts[id].FromRevision)
			if err != nil {
				return err
			}
			result.Download[id] = refs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetRevision returns one stored revision with decompressed content
func (s *Storage) GetRevision(ctx context.Context, userID, resourceID string, revision int64) (*models.RevisionBlob, error) {
	blob, err := getRevision(ctx, s.db, userID, resourceID, revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrRevisionNotFound
		}
		return nil, err
	}
	return blob, nil
}

func getHead(ctx context.Context, tx *sql.Tx, userID, id string) (*resourceHead, error) {
	var latest, updatedAt int64
	var deleted int
	err := tx.QueryRowContext(ctx,
		`SELECT latest_revision, deleted, updated_at FROM resources WHERE user_id = ? AND id = ?`, userID, id,
	).Scan(&latest, &deleted, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read resource %s: %w", id, err)
	}

	return &resourceHead{latest: latest, deleted: deleted != 0, updatedAt: fromMillis(updatedAt)}, nil
}

// isRedelivery reports whether r is exactly the current server revision
func isRedelivery(ctx context.Context, tx *sql.Tx, userID string, r *models.Resource, head *resourceHead) (bool, error) {
	if head == nil || head.deleted || head.latest != r.Revision {
		return false, nil
	}

	blob, err := getRevision(ctx, tx, userID, r.ID, r.Revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return blob.Kind == r.Kind && blob.Name == r.Name && bytes.Equal(blob.Content, r.Content), nil
}

func conflictFor(ctx context.Context, tx *sql.Tx, userID, id string, base int64, head *resourceHead) (*models.ConflictRecord, error) {
	conflict := &models.ConflictRecord{
		ResourceID:       id,
		FromRevision:     base + 1,
		FromDate:         head.updatedAt,
		LatestServerDate: head.updatedAt,
	}

	// первая ревизия, которой у клиента нет
	var createdAt int64
	err := tx.QueryRowContext(ctx, `
		SELECT created_at FROM resource_revisions
		WHERE user_id = ? AND resource_id = ? AND revision > ?
		ORDER BY revision LIMIT 1
	`, userID, id, base).Scan(&createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to read revisions of %s: %w", id, err)
	default:
		conflict.FromDate = fromMillis(createdAt)
	}

	return conflict, nil
}

// markDeleted turns a live resource into a deleted one. The deletion takes
// the next revision number, so an edit based on the old head conflicts.
func markDeleted(ctx context.Context, tx *sql.Tx, userID, id string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE resources
		SET deleted = 1, latest_revision = latest_revision + 1, updated_at = ?
		WHERE user_id = ? AND id = ? AND deleted = 0
	`, toMillis(now), userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete resource %s: %w", id, err)
	}
	return nil
}

// putRevision stores r as the given revision and makes it the latest
func putRevision(ctx context.Context, tx *sql.Tx, userID string, r *models.Resource, revision int64, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO resources (user_id, id, latest_revision, deleted, updated_at) VALUES (?, ?, ?, 0, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			latest_revision = excluded.latest_revision,
			deleted = 0,
			updated_at = excluded.updated_at
	`, userID, r.ID, revision, toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to update resource %s: %w", r.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO resource_revisions (user_id, resource_id, revision, kind, name, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, userID, r.ID, revision, string(r.Kind), r.Name, snappy.Encode(nil, r.Content), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to store revision %d of %s: %w", revision, r.ID, err)
	}

	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// getRevision returns sql.ErrNoRows when the revision does not exist
func getRevision(ctx context.Context, q rowQuerier, userID, id string, revision int64) (*models.RevisionBlob, error) {
	blob, err := scanRevision(q.QueryRowContext(ctx, `
		SELECT resource_id, revision, kind, name, content, created_at
		FROM resource_revisions
		WHERE user_id = ? AND resource_id = ? AND revision = ?
	`, userID, id, revision))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read revision %d of %s: %w", revision, id, err)
	}
	return blob, nil
}

func scanRevision(row rowScanner) (*models.RevisionBlob, error) {
	blob := &models.RevisionBlob{}
	var kind string
	var compressed []byte
	var createdAt int64

	if err := row.Scan(&blob.ResourceID, &blob.Revision, &kind, &blob.Name, &compressed, &createdAt); err != nil {
		return nil, err
	}

	content, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("corrupted revision content: %w", err)
	}

	blob.Kind = models.ResourceKind(kind)
	blob.Content = content
	blob.CreatedAt = fromMillis(createdAt)
	return blob, nil
}

// revisionRefs lists revisions from the given one up to the latest.
// The latest revision is always included.
func revisionRefs(ctx context.Context, tx *sql.Tx, userID, id string, from int64) ([]models.RevisionRef, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT revision, created_at FROM resource_revisions
		WHERE user_id = ? AND resource_id = ?
		  AND revision >= MIN(?, (SELECT MAX(revision) FROM resource_revisions WHERE user_id = ? AND resource_id = ?))
		ORDER BY revision
	`, userID, id, from, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions of %s: %w", id, err)
	}
	defer rows.Close()

	var refs []models.RevisionRef
	for rows.Next() {
		var ref models.RevisionRef
		var createdAt int64
		if err := rows.Scan(&ref.Revision, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		ref.CreatedAt = fromMillis(createdAt)
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate revisions: %w", err)
	}

	return refs, nil
}

// changedSince returns live resources at their latest revision and ids of
// deleted ones, both limited to rows changed at or after since
func changedSince(ctx context.Context, tx *sql.Tx, userID string, since time.Time) ([]*models.Resource, []string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT r.id, r.deleted, r.updated_at, v.revision, v.kind, v.name, v.content
		FROM resources r
		LEFT JOIN resource_revisions v
			ON v.user_id = r.user_id AND v.resource_id = r.id AND v.revision = r.latest_revision
		WHERE r.user_id = ? AND r.updated_at >= ?
		ORDER BY r.id
	`, userID, toMillis(since))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query changed resources: %w", err)
	}
	defer rows.Close()

	var changed []*models.Resource
	var removed []string
	for rows.Next() {
		var id string
		var deleted int
		var updatedAt int64
		var revision sql.NullInt64
		var kind, name sql.NullString
		var compressed []byte

		if err := rows.Scan(&id, &deleted, &updatedAt, &revision, &kind, &name, &compressed); err != nil {
			return nil, nil, fmt.Errorf("failed to scan resource: %w", err)
		}

		if deleted != 0 || !revision.Valid {
			removed = append(removed, id)
			continue
		}

		content, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, nil, fmt.Errorf("corrupted content of %s: %w", id, err)
		}

		changed = append(changed, &models.Resource{
			ID:           id,
			Kind:         models.ResourceKind(kind.String),
			Name:         name.String,
			Content:      content,
			Revision:     revision.Int64,
			BaseRevision: revision.Int64,
			LastModified: fromMillis(updatedAt),
			Synced:       true,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate resources: %w", err)
	}

	return changed, removed, nil
}
