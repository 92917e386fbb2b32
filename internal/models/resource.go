package models

import (
	"bytes"
	"time"
)

// ResourceKind тип пользовательского ресурса
type ResourceKind string

const (
	ResourceKindLevel ResourceKind = "level"
	ResourceKindActor ResourceKind = "actor"
)

// Valid проверяет тип ресурса
func (k ResourceKind) Valid() bool {
	return k == ResourceKindLevel || k == ResourceKindActor
}

// Resource пользовательский ресурс (уровень или актер), созданный в редакторе.
// Содержимое непрозрачно для синхронизации и сливается только целиком.
type Resource struct {
	LastModified time.Time    `json:"last_modified"`
	ID           string       `json:"id"`
	Kind         ResourceKind `json:"kind"`
	Name         string       `json:"name"`
	Content      []byte       `json:"content"`
	Revision     int64        `json:"revision"`      // Revision локальная ревизия
	BaseRevision int64        `json:"base_revision"` // BaseRevision последняя ревизия, подтвержденная сервером (0 - не загружался)
	Synced       bool         `json:"synced"`
	Deleted      bool         `json:"deleted"` // Deleted локальное удаление, ожидающее подтверждения
}

// Clone создает глубокую копию ресурса
func (r *Resource) Clone() *Resource {
	content := make([]byte, len(r.Content))
	copy(content, r.Content)

	clone := *r
	clone.Content = content
	return &clone
}

// SameContent сравнивает содержимое ресурсов без учета ревизий
func (r *Resource) SameContent(other *Resource) bool {
	return r.Kind == other.Kind && r.Name == other.Name && bytes.Equal(r.Content, other.Content)
}

// RevisionBlob одна ревизия ресурса, хранящаяся на сервере
type RevisionBlob struct {
	CreatedAt  time.Time    `json:"created_at"`
	ResourceID string       `json:"resource_id"`
	Kind       ResourceKind `json:"kind"`
	Name       string       `json:"name"`
	Content    []byte       `json:"content"`
	Revision   int64        `json:"revision"`
}

// RevisionRef ссылка на сохраненную ревизию ресурса
type RevisionRef struct {
	CreatedAt time.Time `json:"created_at"`
	Revision  int64     `json:"revision"`
}
