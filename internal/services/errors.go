package services

import "errors"

// Ошибки бизнес-логики, общие для сервисов.
var (
	// ErrForbidden вызывающий не владелец ресурса, а ресурс не публичный.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput входные данные не прошли проверку.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
