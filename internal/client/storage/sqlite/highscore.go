package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gamesync/internal/client/storage"
	"github.com/iudanet/gamesync/internal/models"
)

const highscoreColumns = `id, level_id, score, revision, last_modified, synced`

// GetHighscore returns ErrNotFound if no row exists for the level
func (s *Storage) GetHighscore(ctx context.Context, levelID string) (*models.Highscore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+highscoreColumns+` FROM highscores WHERE level_id = ?`, levelID)

	h, err := scanHighscore(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, unavailable("get highscore", err)
	}

	return h, nil
}

// ListHighscores returns every highscore row
func (s *Storage) ListHighscores(ctx context.Context) ([]*models.Highscore, error) {
	return s.queryHighscores(ctx, `SELECT `+highscoreColumns+` FROM highscores ORDER BY level_id`)
}

// ListUnsyncedHighscores returns a snapshot of unsynced rows
func (s *Storage) ListUnsyncedHighscores(ctx context.Context) ([]*models.Highscore, error) {
	return s.queryHighscores(ctx, `SELECT `+highscoreColumns+` FROM highscores WHERE synced = 0 ORDER BY level_id`)
}

// SetHighscoreIfHigher stores score only when it strictly beats the stored one
func (s *Storage) SetHighscoreIfHigher(ctx context.Context, levelID string, score int64, now time.Time) (bool, error) {
	written := false

	err := s.withTx(ctx, "set highscore", func(tx *sql.Tx) error {
		var stored int64
		err := tx.QueryRowContext(ctx, `SELECT score FROM highscores WHERE level_id = ?`, levelID).Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `
				INSERT INTO highscores (id, level_id, score, revision, last_modified, synced)
				VALUES (?, ?, ?, 1, ?, 0)
			`, uuid.New().String(), levelID, score, toMillis(now))
			if err != nil {
				return fmt.Errorf("failed to insert highscore: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to read highscore: %w", err)
		case score <= stored:
			// равный результат не является новым рекордом
			return nil
		default:
			_, err = tx.ExecContext(ctx, `
				UPDATE highscores
				SET score = ?, revision = revision + 1, last_modified = ?, synced = 0
				WHERE level_id = ?
			`, score, toMillis(now), levelID)
			if err != nil {
				return fmt.Errorf("failed to update highscore: %w", err)
			}
		}

		written = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return written, nil
}

// MarkHighscoresSynced marks acknowledged revisions synced, applies the
// server-merged rows and advances the cursor in one transaction.
// A server score only replaces a strictly lower local score.
func (s *Storage) MarkHighscoresSynced(ctx context.Context, acked []*models.Highscore, merged []*models.Highscore, syncDate time.Time) error {
	return s.withTx(ctx, "mark highscores synced", func(tx *sql.Tx) error {
		for _, h := range acked {
			// строка остается несинхронизированной, если после снимка появилась новая ревизия
			_, err := tx.ExecContext(ctx,
				`UPDATE highscores SET synced = 1 WHERE level_id = ? AND revision = ?`,
				h.LevelID, h.Revision)
			if err != nil {
				return fmt.Errorf("failed to mark highscore %s synced: %w", h.LevelID, err)
			}
		}

		for _, h := range merged {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO highscores (id, level_id, score, revision, last_modified, synced)
				VALUES (?, ?, ?, 0, ?, 1)
				ON CONFLICT (level_id) DO UPDATE SET
					score = excluded.score,
					last_modified = excluded.last_modified,
					synced = 1
				WHERE excluded.score > highscores.score
			`, uuid.New().String(), h.LevelID, h.Score, toMillis(syncDate))
			if err != nil {
				return fmt.Errorf("failed to merge highscore %s: %w", h.LevelID, err)
			}
		}

		return advanceCursor(ctx, tx, models.DomainHighscores, syncDate)
	})
}

func (s *Storage) queryHighscores(ctx context.Context, query string, args ...any) ([]*models.Highscore, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query highscores", err)
	}
	defer rows.Close()

	var result []*models.Highscore
	for rows.Next() {
		h, err := scanHighscore(rows)
		if err != nil {
			return nil, unavailable("scan highscore", err)
		}
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate highscores", err)
	}

	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHighscore(row rowScanner) (*models.Highscore, error) {
	h := &models.Highscore{}
	var lastModified int64
	var synced int

	if err := row.Scan(&h.ID, &h.LevelID, &h.Score, &h.Revision, &lastModified, &synced); err != nil {
		return nil, err
	}

	h.LastModified = fromMillis(lastModified)
	h.Synced = intToBool(synced)
	return h, nil
}
