package models

import "time"

// CounterField накапливаемое числовое поле.
// Total - текущее значение, Delta - события с момента последней синхронизации.
// На сервер передается только Delta.
type CounterField struct {
	Total int64 `json:"total"`
	Delta int64 `json:"delta"`
}

// Add применяет n событий к счетчику
func (c *CounterField) Add(n int64) {
	c.Total += n
	c.Delta += n
}

// StatCounter имена счетчиков статистики уровня
type StatCounter string

const (
	CounterPlays     StatCounter = "plays"
	CounterDeaths    StatCounter = "deaths"
	CounterBookmarks StatCounter = "bookmarks"
)

// Stat статистика игрока по уровню
type Stat struct {
	LastPlayed   time.Time    `json:"last_played"`
	LastModified time.Time    `json:"last_modified"`
	ID           string       `json:"id"`
	LevelID      string       `json:"level_id"`
	Plays        CounterField `json:"plays"`
	Deaths       CounterField `json:"deaths"`
	Bookmarks    CounterField `json:"bookmarks"` // Bookmarks рейтинг с учетом закладок, дельта может быть отрицательной
	Revision     int64        `json:"revision"`
	Synced       bool         `json:"synced"`
}

// PendingStat снимок несинхронизированной строки статистики, закрепленный
// перед отправкой. Повторная отправка после неоднозначной ошибки передает
// тот же снимок, поэтому сервер может отбросить дубликат по ревизии.
type PendingStat struct {
	LastPlayed     time.Time `json:"last_played"`
	LevelID        string    `json:"level_id"`
	Revision       int64     `json:"revision"`
	PlaysDelta     int64     `json:"plays_delta"`
	DeathsDelta    int64     `json:"deaths_delta"`
	BookmarksDelta int64     `json:"bookmarks_delta"`
}

// StatTotals authoritative totals returned by the server
type StatTotals struct {
	LastPlayed time.Time `json:"last_played"`
	LevelID    string    `json:"level_id"`
	Plays      int64     `json:"plays"`
	Deaths     int64     `json:"deaths"`
	Bookmarks  int64     `json:"bookmarks"`
}

// StatEvent событие уровня (тег), хранится отдельно от счетчиков
// и удаляется после синхронизации по истечении срока хранения
type StatEvent struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	LevelID   string    `json:"level_id"`
	Event     string    `json:"event"`
	Synced    bool      `json:"synced"`
}
