// Package models содержит доменные структуры сервиса: записи трекинга
// употребления никотина, пользователя и вспомогательные типы для приёма
// данных из JSON-запросов.
package models

import (
	"time"

	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
)

// EntryType вид записи трекинга.
type EntryType string

const (
	// EntryTypeSmoked курение.
	EntryTypeSmoked EntryType = "smoked"
	// EntryTypeVaped вейп.
	EntryTypeVaped EntryType = "vaped"
	// EntryTypeNicotineReplacement никотинзаместительная терапия (пластырь, жвачка).
	EntryTypeNicotineReplacement EntryType = "nicotine_replacement"
)

// EntryTypes перечисляет все допустимые виды записей.
var EntryTypes = []EntryType{EntryTypeSmoked, EntryTypeVaped, EntryTypeNicotineReplacement}

// Valid сообщает, что значение входит в перечисление.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeSmoked, EntryTypeVaped, EntryTypeNicotineReplacement:
		return true
	}
	return false
}

// TrackingEntry запись об употреблении за календарный день.
// UserID пуст, если запись не привязана к пользователю.
type TrackingEntry struct {
	ID      string        `json:"id"`
	UserID  string        `json:"user"`
	Date    calendar.Date `json:"date"`
	Type    EntryType     `json:"type"`
	Created time.Time     `json:"created"`
	Updated time.Time     `json:"updated"`
}

// DummyEntry используется для приёма записи из JSON-запроса
// до валидации и разбора даты.
type DummyEntry struct {
	Date string `json:"date" validate:"required"`                                      // Дата в формате YYYY-MM-DD
	Type string `json:"type" validate:"required,oneof=smoked vaped nicotine_replacement"` // Вид записи
}

// DummyEntryPatch частичное обновление записи. Пустые поля не меняются.
type DummyEntryPatch struct {
	Date string `json:"date,omitempty" validate:"omitempty"`
	Type string `json:"type,omitempty" validate:"omitempty,oneof=smoked vaped nicotine_replacement"`
}

// DummyEntryType тело запроса установки записи на конкретную дату.
type DummyEntryType struct {
	Type string `json:"type" validate:"required,oneof=smoked vaped nicotine_replacement"`
}
