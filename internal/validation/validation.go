package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	// playerNamePattern латинские буквы, цифры и подчеркивание, 3-32 символа
	playerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

	// levelIDPattern идентификатор уровня: буквы, цифры, точка, дефис, подчеркивание
	levelIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)
)

const (
	MinPasswordLen     = 8
	MaxResourceNameLen = 128

	// MaxResourceContentLen предел содержимого одного ресурса.
	// Пачка синхронизации должна помещаться в лимит тела запроса сервера.
	MaxResourceContentLen = 1 << 20
)

// ValidateUsername проверяет имя игрока
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if !playerNamePattern.MatchString(username) {
		return fmt.Errorf("username must be 3-32 characters of letters, numbers and underscores")
	}
	return nil
}

// ValidatePassword проверяет минимальную длину пароля
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}
	return nil
}

// ValidateLevelID проверяет идентификатор уровня, под которым хранятся рекорды и статистика
func ValidateLevelID(levelID string) error {
	if levelID == "" {
		return fmt.Errorf("level id cannot be empty")
	}
	if !levelIDPattern.MatchString(levelID) {
		return fmt.Errorf("invalid level id %q", levelID)
	}
	return nil
}

// ValidateResourceName проверяет имя пользовательского уровня или персонажа
func ValidateResourceName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxResourceNameLen {
		return fmt.Errorf("name must not exceed %d characters", MaxResourceNameLen)
	}
	return nil
}

// ValidateResourceContent проверяет размер содержимого ресурса
func ValidateResourceContent(content []byte) error {
	if len(content) > MaxResourceContentLen {
		return fmt.Errorf("content must not exceed %d bytes, got %d", MaxResourceContentLen, len(content))
	}
	return nil
}
