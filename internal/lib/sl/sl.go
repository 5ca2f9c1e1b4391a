// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: единообразно формировать структурированные поля лога
// для ошибок и идентификаторов сущностей.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
// Для nil-ошибки возвращается пустое значение, чтобы не паниковать в логировании.
//
// Пример:
//
//	log.Error("failed to recompute last_use_date", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// UserID возвращает атрибут с идентификатором пользователя.
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// EntryID возвращает атрибут с идентификатором записи трекинга.
func EntryID(id string) slog.Attr {
	return slog.String("entry_id", id)
}
