// Package storage объявляет ошибки слоя хранения, общие для репозиториев
// и бизнес-логики. Конкретная реализация на PostgreSQL находится в пакете repository.
package storage

import "errors"

var (
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists пользователь с таким email или username уже существует.
	ErrUserExists = errors.New("user already exists")
	// ErrEntryNotFound запись трекинга не найдена.
	ErrEntryNotFound = errors.New("tracking entry not found")
	// ErrEntryExists у пользователя уже есть запись на эту дату.
	ErrEntryExists = errors.New("tracking entry for this date already exists")
)
