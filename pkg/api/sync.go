package api

import "time"

// SyncStatus результат обработки запроса синхронизации на сервере
type SyncStatus string

const (
	SyncStatusOK         SyncStatus = "ok"
	SyncStatusConflicted SyncStatus = "conflicted"
)

// HighscoreEntry рекорд уровня в запросе и ответе синхронизации
type HighscoreEntry struct {
	LevelID  string `json:"level_id" validate:"required"`
	Score    int64  `json:"score"`
	Revision int64  `json:"revision" validate:"gte=0"`
}

// StatEntry строка статистики. В запросе счетчики - дельты,
// в ответе - итоговые значения сервера.
type StatEntry struct {
	LastPlayed time.Time `json:"last_played"`
	LevelID    string    `json:"level_id" validate:"required"`
	Revision   int64     `json:"revision" validate:"gte=0"`
	Plays      int64     `json:"plays"`
	Deaths     int64     `json:"deaths"`
	Bookmarks  int64     `json:"bookmarks"`
}

// StatEventEntry событие уровня (тег)
type StatEventEntry struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id" validate:"required"`
	LevelID   string    `json:"level_id" validate:"required"`
	Event     string    `json:"event" validate:"required"`
}

// ResourceEntry ресурс целиком вместе с ревизиями
type ResourceEntry struct {
	UpdatedAt    time.Time `json:"updated_at"`
	ID           string    `json:"id" validate:"required"`
	Kind         string    `json:"kind" validate:"required,oneof=level actor"`
	Name         string    `json:"name"`
	Content      []byte    `json:"content"`
	Revision     int64     `json:"revision" validate:"gte=1"`
	BaseRevision int64     `json:"base_revision" validate:"gte=0"`
	Deleted      bool      `json:"deleted,omitempty"`
}

// ConflictRecord расхождение истории ресурса между клиентом и сервером
type ConflictRecord struct {
	FromDate         time.Time `json:"from_date"`
	LatestServerDate time.Time `json:"latest_server_date"`
	ResourceID       string    `json:"resource_id" validate:"required"`
	FromRevision     int64     `json:"from_revision"`
}

// SyncRequest запрос синхронизации одного домена.
// Заполняются только поля, относящиеся к домену запроса.
type SyncRequest struct {
	LastSyncDate time.Time        `json:"last_sync_date"`
	DeviceID     string           `json:"device_id,omitempty"` // DeviceID обязателен для stats: ревизии уникальны только в пределах устройства
	Highscores   []HighscoreEntry `json:"highscores,omitempty" validate:"dive"`
	Stats        []StatEntry      `json:"stats,omitempty" validate:"dive"`
	Events       []StatEventEntry `json:"events,omitempty" validate:"dive"`
	Resources    []ResourceEntry  `json:"resources,omitempty" validate:"dive"` // Resources удаления передаются записями с Deleted и BaseRevision
}

// SyncResponse ответ сервера. Merged содержит авторитетное состояние сервера:
// подтвержденные записи и изменения с других устройств после LastSyncDate.
// При Status == conflicted записи вне Conflicts все равно приняты.
type SyncResponse struct {
	NewSyncDate time.Time        `json:"new_sync_date"`
	Status      SyncStatus       `json:"status"`
	Highscores  []HighscoreEntry `json:"highscores,omitempty"`
	Stats       []StatEntry      `json:"stats,omitempty"`
	Resources   []ResourceEntry  `json:"resources,omitempty"`
	Removed     []string         `json:"removed,omitempty"`
	Conflicts   []ConflictRecord `json:"conflicts,omitempty"`
}

// ConflictFixRequest решение пользователя по конфликтам ресурсов.
// При KeepClient клиент передает текущие копии ресурсов в Resources.
type ConflictFixRequest struct {
	LastSync   time.Time                 `json:"last_sync"`
	Conflicts  map[string]ConflictRecord `json:"conflicts" validate:"required,min=1,dive"`
	Resources  []ResourceEntry           `json:"resources,omitempty" validate:"dive"`
	KeepClient bool                      `json:"keep_client"`
}

// ConflictFixStatus результат исправления конфликта
type ConflictFixStatus string

const (
	ConflictFixStatusOK ConflictFixStatus = "ok"
	// ConflictFixStatusConflict состояние сервера снова изменилось между обнаружением и исправлением
	ConflictFixStatusConflict ConflictFixStatus = "conflict"
)

// RevisionRef ссылка на ревизию ресурса для загрузки
type RevisionRef struct {
	CreatedAt time.Time `json:"created_at"`
	Revision  int64     `json:"revision"`
}

// ConflictFixResponse ответ на исправление конфликтов
type ConflictFixResponse struct {
	NewSyncDate       time.Time                `json:"new_sync_date"`
	BlobsToDownload   map[string][]RevisionRef `json:"blobs_to_download,omitempty"`
	Accepted          map[string]int64         `json:"accepted,omitempty"` // Accepted новые ведущие ревизии при KeepClient
	Status            ConflictFixStatus        `json:"status"`
	ResourcesToRemove []string                 `json:"resources_to_remove,omitempty"`
}

// RevisionBlob содержимое одной ревизии ресурса
type RevisionBlob struct {
	CreatedAt  time.Time `json:"created_at"`
	ResourceID string    `json:"resource_id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Content    []byte    `json:"content"`
	Revision   int64     `json:"revision"`
}
