package storage

import "errors"

var (
	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists возвращается при попытке создать пользователя с существующим username
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrRevisionNotFound возвращается, когда запрошенной ревизии ресурса нет
	ErrRevisionNotFound = errors.New("revision not found")
)
