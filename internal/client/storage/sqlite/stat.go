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

const statColumns = `id, level_id,
	plays_total, plays_delta, deaths_total, deaths_delta, bookmarks_total, bookmarks_delta,
	last_played, revision, last_modified, synced`

// counterUpdates одна фиксированная инструкция на счетчик: итог, дельта и ревизия меняются вместе
var counterUpdates = map[models.StatCounter]string{
	models.CounterPlays: `
		UPDATE stats
		SET plays_total = plays_total + ?1, plays_delta = plays_delta + ?1,
		    last_played = ?2, revision = revision + 1, last_modified = ?2, synced = 0
		WHERE level_id = ?3`,
	models.CounterDeaths: `
		UPDATE stats
		SET deaths_total = deaths_total + ?1, deaths_delta = deaths_delta + ?1,
		    revision = revision + 1, last_modified = ?2, synced = 0
		WHERE level_id = ?3`,
	models.CounterBookmarks: `
		UPDATE stats
		SET bookmarks_total = bookmarks_total + ?1, bookmarks_delta = bookmarks_delta + ?1,
		    revision = revision + 1, last_modified = ?2, synced = 0
		WHERE level_id = ?3`,
}

// GetStat returns ErrNotFound if no row exists for the level
func (s *Storage) GetStat(ctx context.Context, levelID string) (*models.Stat, error) {
	st, err := scanStat(s.db.QueryRowContext(ctx, `SELECT `+statColumns+` FROM stats WHERE level_id = ?`, levelID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, unavailable("get stat", err)
	}
	return st, nil
}

// ListStats returns every stat row
func (s *Storage) ListStats(ctx context.Context) ([]*models.Stat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+statColumns+` FROM stats ORDER BY level_id`)
	if err != nil {
		return nil, unavailable("list stats", err)
	}
	defer rows.Close()

	var result []*models.Stat
	for rows.Next() {
		st, err := scanStat(rows)
		if err != nil {
			return nil, unavailable("scan stat", err)
		}
		result = append(result, st)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate stats", err)
	}

	return result, nil
}

// IncrementCounter applies delta to one counter in one transaction
func (s *Storage) IncrementCounter(ctx context.Context, levelID string, counter models.StatCounter, delta int64, now time.Time) (*models.Stat, error) {
	query, ok := counterUpdates[counter]
	if !ok {
		return nil, fmt.Errorf("unknown counter %q", counter)
	}

	var st *models.Stat
	err := s.withTx(ctx, "increment counter", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO stats (id, level_id, last_modified) VALUES (?, ?, ?)`,
			uuid.New().String(), levelID, toMillis(now))
		if err != nil {
			return fmt.Errorf("failed to create stat row: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, delta, toMillis(now), levelID); err != nil {
			return fmt.Errorf("failed to update %s: %w", counter, err)
		}

		st, err = scanStat(tx.QueryRowContext(ctx, `SELECT `+statColumns+` FROM stats WHERE level_id = ?`, levelID))
		if err != nil {
			return fmt.Errorf("failed to read stat row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return st, nil
}

// ClaimUnsyncedStats pins unsynced rows and returns every pinned snapshot
func (s *Storage) ClaimUnsyncedStats(ctx context.Context) ([]*models.PendingStat, error) {
	var pending []*models.PendingStat

	err := s.withTx(ctx, "claim unsynced stats", func(tx *sql.Tx) error {
		// уже закрепленные снимки не трогаем: повтор после неоднозначной ошибки
		// должен отправить ровно те же дельты с той же ревизией
		_, err := tx.ExecContext(ctx, `
			UPDATE stats
			SET pending_revision = revision,
			    pending_plays = plays_delta,
			    pending_deaths = deaths_delta,
			    pending_bookmarks = bookmarks_delta,
			    pending_last_played = last_played
			WHERE synced = 0 AND pending_revision = 0
		`)
		if err != nil {
			return fmt.Errorf("failed to pin stats: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT level_id, pending_revision, pending_plays, pending_deaths, pending_bookmarks, pending_last_played
			FROM stats
			WHERE pending_revision > 0
			ORDER BY level_id
		`)
		if err != nil {
			return fmt.Errorf("failed to query pinned stats: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p := &models.PendingStat{}
			var lastPlayed int64
			if err := rows.Scan(&p.LevelID, &p.Revision, &p.PlaysDelta, &p.DeathsDelta, &p.BookmarksDelta, &lastPlayed); err != nil {
				return fmt.Errorf("failed to scan pinned stat: %w", err)
			}
			p.LastPlayed = fromMillis(lastPlayed)
			pending = append(pending, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return pending, nil
}

// MarkStatsSynced applies an acknowledged stats round-trip atomically
func (s *Storage) MarkStatsSynced(ctx context.Context, acked []*models.PendingStat, totals []*models.StatTotals, eventIDs []string, syncDate time.Time) error {
	return s.withTx(ctx, "mark stats synced", func(tx *sql.Tx) error {
		for _, p := range acked {
			_, err := tx.ExecContext(ctx, `
				UPDATE stats
				SET plays_delta = plays_delta - pending_plays,
				    deaths_delta = deaths_delta - pending_deaths,
				    bookmarks_delta = bookmarks_delta - pending_bookmarks,
				    synced = CASE WHEN revision = pending_revision THEN 1 ELSE 0 END,
				    pending_revision = 0,
				    pending_plays = 0,
				    pending_deaths = 0,
				    pending_bookmarks = 0,
				    pending_last_played = 0
				WHERE level_id = ? AND pending_revision = ?
			`, p.LevelID, p.Revision)
			if err != nil {
				return fmt.Errorf("failed to acknowledge stat %s: %w", p.LevelID, err)
			}
		}

		for _, t := range totals {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO stats (id, level_id, last_modified, synced) VALUES (?, ?, ?, 1)`,
				uuid.New().String(), t.LevelID, toMillis(syncDate))
			if err != nil {
				return fmt.Errorf("failed to create stat row %s: %w", t.LevelID, err)
			}

			// локальные события, еще не дошедшие до сервера, остаются в дельте поверх итога сервера
			_, err = tx.ExecContext(ctx, `
				UPDATE stats
				SET plays_total = ? + plays_delta,
				    deaths_total = ? + deaths_delta,
				    bookmarks_total = ? + bookmarks_delta,
				    last_played = MAX(last_played, ?)
				WHERE level_id = ?
			`, t.Plays, t.Deaths, t.Bookmarks, toMillis(t.LastPlayed), t.LevelID)
			if err != nil {
				return fmt.Errorf("failed to apply totals %s: %w", t.LevelID, err)
			}
		}

		for _, id := range eventIDs {
			if _, err := tx.ExecContext(ctx, `UPDATE stat_events SET synced = 1 WHERE id = ?`, id); err != nil {
				return fmt.Errorf("failed to mark event %s synced: %w", id, err)
			}
		}

		return advanceCursor(ctx, tx, models.DomainStats, syncDate)
	})
}

// AddEvent stores a tag event for the level
func (s *Storage) AddEvent(ctx context.Context, event *models.StatEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stat_events (id, level_id, event, created_at, synced) VALUES (?, ?, ?, ?, ?)
	`, event.ID, event.LevelID, event.Event, toMillis(event.CreatedAt), boolToInt(event.Synced))
	if err != nil {
		return unavailable("add event", err)
	}
	return nil
}

// ListUnsyncedEvents returns events not yet acknowledged by the server
func (s *Storage) ListUnsyncedEvents(ctx context.Context) ([]*models.StatEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, level_id, event, created_at, synced
		FROM stat_events
		WHERE synced = 0
		ORDER BY created_at
	`)
	if err != nil {
		return nil, unavailable("list events", err)
	}
	defer rows.Close()

	var events []*models.StatEvent
	for rows.Next() {
		e := &models.StatEvent{}
		var createdAt int64
		var synced int
		if err := rows.Scan(&e.ID, &e.LevelID, &e.Event, &createdAt, &synced); err != nil {
			return nil, unavailable("scan event", err)
		}
		e.CreatedAt = fromMillis(createdAt)
		e.Synced = intToBool(synced)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate events", err)
	}

	return events, nil
}

// PruneEvents deletes synced events created before the cutoff.
// Unsynced events are kept regardless of age.
func (s *Storage) PruneEvents(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM stat_events WHERE synced = 1 AND created_at < ?`, toMillis(before))
	if err != nil {
		return 0, unavailable("prune events", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, unavailable("prune events", err)
	}

	return int(n), nil
}

func scanStat(row rowScanner) (*models.Stat, error) {
	st := &models.Stat{}
	var lastPlayed, lastModified int64
	var synced int

	err := row.Scan(
		&st.ID,
		&st.LevelID,
		&st.Plays.Total,
		&st.Plays.Delta,
		&st.Deaths.Total,
		&st.Deaths.Delta,
		&st.Bookmarks.Total,
		&st.Bookmarks.Delta,
		&lastPlayed,
		&st.Revision,
		&lastModified,
		&synced,
	)
	if err != nil {
		return nil, err
	}

	st.LastPlayed = fromMillis(lastPlayed)
	st.LastModified = fromMillis(lastModified)
	st.Synced = intToBool(synced)
	return st, nil
}
