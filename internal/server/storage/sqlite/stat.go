package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/gamesync/internal/models"
	"github.com/iudanet/gamesync/internal/server/storage"
)

// ApplyStats adds every delta exactly once. A delta is identified by
// (device, level, revision): a repeated submission after an ambiguous
// failure carries the same revision and is skipped.
func (s *Storage) ApplyStats(ctx context.Context, userID string, batch *storage.StatBatch, since, now time.Time) ([]*models.StatTotals, error) {
	var result []*models.StatTotals

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		submitted := make(map[string]bool, len(batch.Deltas))
		for _, d := range batch.Deltas {
			submitted[d.LevelID] = true

			res, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO stat_revisions (user_id, device_id, level_id, revision, applied_at)
				VALUES (?, ?, ?, ?, ?)
			`, userID, batch.DeviceID, d.LevelID, d.Revision, toMillis(now))
			if err != nil {
				return fmt.Errorf("failed to record stat revision: %w", err)
			}

			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if n == 0 {
				// эта ревизия уже применена
				continue
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO stats (user_id, level_id, plays, deaths, bookmarks, last_played, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (user_id, level_id) DO UPDATE SET
					plays = plays + excluded.plays,
					deaths = deaths + excluded.deaths,
					bookmarks = bookmarks + excluded.bookmarks,
					last_played = MAX(last_played, excluded.last_played),
					updated_at = excluded.updated_at
			`, userID, d.LevelID, d.PlaysDelta, d.DeathsDelta, d.BookmarksDelta, toMillis(d.LastPlayed), toMillis(now))
			if err != nil {
				return fmt.Errorf("failed to apply stat delta %s: %w", d.LevelID, err)
			}
		}

		for _, e := range batch.Events {
			_, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO stat_events (id, user_id, level_id, event, created_at)
				VALUES (?, ?, ?, ?, ?)
			`, e.ID, userID, e.LevelID, e.Event, toMillis(e.CreatedAt))
			if err != nil {
				return fmt.Errorf("failed to store event %s: %w", e.ID, err)
			}
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT level_id, plays, deaths, bookmarks, last_played, updated_at
			FROM stats WHERE user_id = ? ORDER BY level_id
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to query stats: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t := &models.StatTotals{}
			var lastPlayed, updatedAt int64
			if err := rows.Scan(&t.LevelID, &t.Plays, &t.Deaths, &t.Bookmarks, &lastPlayed, &updatedAt); err != nil {
				return fmt.Errorf("failed to scan stat: %w", err)
			}
			t.LastPlayed = fromMillis(lastPlayed)

			if submitted[t.LevelID] || !fromMillis(updatedAt).Before(since) {
				result = append(result, t)
			}
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CountEvents returns the number of stored events for a level
func (s *Storage) CountEvents(ctx context.Context, userID, levelID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stat_events WHERE user_id = ? AND level_id = ?`, userID, levelID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}
