package models

import "time"

// Highscore лучший результат игрока на уровне.
// Одна строка на уровень, сервер хранит максимум.
type Highscore struct {
	LastModified time.Time `json:"last_modified"`
	ID           string    `json:"id"`       // ID UUID строки
	LevelID      string    `json:"level_id"` // LevelID идентификатор уровня
	Score        int64     `json:"score"`
	Revision     int64     `json:"revision"` // Revision растет при каждой локальной записи
	Synced       bool      `json:"synced"`   // Synced сервер подтвердил именно эту ревизию
}

// Beats reports whether score is a new highscore for this row.
// Equal scores are not new highscores.
func (h *Highscore) Beats(score int64) bool {
	if h == nil {
		return true
	}
	return score > h.Score
}
