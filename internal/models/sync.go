package models

import "time"

// Domain категория синхронизируемых данных со своим курсором и репозиторием
type Domain string

const (
	DomainHighscores Domain = "highscores"
	DomainStats      Domain = "stats"
	DomainResources  Domain = "resources"
)

// Domains возвращает все домены в порядке синхронизации
func Domains() []Domain {
	return []Domain{DomainHighscores, DomainStats, DomainResources}
}

// Valid проверяет, что домен известен
func (d Domain) Valid() bool {
	switch d {
	case DomainHighscores, DomainStats, DomainResources:
		return true
	}
	return false
}

// SyncCursor хранит время последней успешной синхронизации домена.
// LastSyncDate всегда берется из ответа сервера, а не из локальных часов.
type SyncCursor struct {
	LastSyncDate time.Time `json:"last_sync_date"`
	Domain       Domain    `json:"domain"`
}

// ConflictRecord описывает расхождение истории ресурса между клиентом и сервером.
// Создается сервером в ответе на синхронизацию и не сохраняется на клиенте
// дольше, чем длится разрешение конфликта.
type ConflictRecord struct {
	FromDate         time.Time `json:"from_date"`          // FromDate когда сервер ушел вперед
	LatestServerDate time.Time `json:"latest_server_date"` // LatestServerDate время последней серверной ревизии
	ResourceID       string    `json:"resource_id"`        // ResourceID идентификатор ресурса
	FromRevision     int64     `json:"from_revision"`      // FromRevision первая ревизия, которую сервер не признает
}
