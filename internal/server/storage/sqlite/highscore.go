package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/gamesync/internal/models"
)

// MergeHighscores keeps the maximum score per level. Re-sending a score is a no-op.
func (s *Storage) MergeHighscores(ctx context.Context, userID string, scores []*models.Highscore, since, now time.Time) ([]*models.Highscore, error) {
	var result []*models.Highscore

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		submitted := make(map[string]bool, len(scores))
		for _, h := range scores {
			submitted[h.LevelID] = true
			_, err := tx.ExecContext(ctx, `
				INSERT INTO highscores (user_id, level_id, score, updated_at) VALUES (?, ?, ?, ?)
				ON CONFLICT (user_id, level_id) DO UPDATE SET
					score = excluded.score,
					updated_at = excluded.updated_at
				WHERE excluded.score > highscores.score
			`, userID, h.LevelID, h.Score, toMillis(now))
			if err != nil {
				return fmt.Errorf("failed to merge highscore %s: %w", h.LevelID, err)
			}
		}

		rows, err := queryHighscores(ctx, tx, userID)
		if err != nil {
			return err
		}

		for _, h := range rows {
			if submitted[h.LevelID] || !h.LastModified.Before(since) {
				result = append(result, h)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func queryHighscores(ctx context.Context, q querier, userID string) ([]*models.Highscore, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT level_id, score, updated_at FROM highscores WHERE user_id = ? ORDER BY level_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query highscores: %w", err)
	}
	defer rows.Close()

	var result []*models.Highscore
	for rows.Next() {
		h := &models.Highscore{Synced: true}
		var updatedAt int64
		if err := rows.Scan(&h.LevelID, &h.Score, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan highscore: %w", err)
		}
		h.LastModified = fromMillis(updatedAt)
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate highscores: %w", err)
	}

	return result, nil
}
