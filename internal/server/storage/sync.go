package storage

import (
	"context"
	"time"

	"github.com/iudanet/gamesync/internal/models"
)

// HighscoreStorage хранит максимальный результат игрока по уровню
type HighscoreStorage interface {
	// MergeHighscores keeps max(score) per level and returns the server rows
	// for the submitted levels plus rows changed since the given date.
	MergeHighscores(ctx context.Context, userID string, scores []*models.Highscore, since, now time.Time) ([]*models.Highscore, error)
}

// StatBatch одна отправка статистики с устройства
type StatBatch struct {
	DeviceID string
	Deltas   []*models.PendingStat
	Events   []*models.StatEvent
}

// StatStorage применяет дельты счетчиков ровно один раз
type StatStorage interface {
	// ApplyStats adds deltas whose (device, level, revision) was not seen before,
	// stores events by id and returns the resulting totals.
	ApplyStats(ctx context.Context, userID string, batch *StatBatch, since, now time.Time) ([]*models.StatTotals, error)
}

// ResourceSyncResult результат синхронизации ресурсов
type ResourceSyncResult struct {
	Resources []*models.Resource       // Resources принятые и измененные с since
	Removed   []string                 // Removed ресурсы, удаленные с since
	Conflicts []*models.ConflictRecord // Conflicts ресурсы с устаревшей базовой ревизией
}

// ConflictFix решение клиента по конфликтам.
// При KeepClient ресурс с Deleted удаляется на сервере.
type ConflictFix struct {
	Conflicts  map[string]models.ConflictRecord
	Resources  []*models.Resource
	KeepClient bool
}

// ConflictFixResult результат исправления конфликтов.
// Changed означает, что состояние сервера ушло вперед после обнаружения конфликта
// и ничего не было применено.
type ConflictFixResult struct {
	Accepted map[string]int64
	Download map[string][]models.RevisionRef
	Remove   []string // Remove ресурсы, которых на сервере больше нет
	Changed  bool
}

// ResourceStorage хранит историю ревизий ресурсов
type ResourceStorage interface {
	SyncResources(ctx context.Context, userID string, resources []*models.Resource, since, now time.Time) (*ResourceSyncResult, error)
	FixConflicts(ctx context.Context, userID string, fix *ConflictFix, now time.Time) (*ConflictFixResult, error)
	GetRevision(ctx context.Context, userID, resourceID string, revision int64) (*models.RevisionBlob, error)
}
