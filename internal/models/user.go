package models

import (
	"time"

	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
)

// User представляет зарегистрированного пользователя.
// LastUseDate производное кешируемое поле: дата последней учитываемой
// записи трекинга или nil, если таких записей нет. Клиенты его не пишут.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email,omitempty"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	QuitDate     *calendar.Date `json:"quit_date"`
	IsPublic     bool           `json:"is_public"`
	LastUseDate  *calendar.Date `json:"last_use_date"`
	Created      time.Time      `json:"created"`
	Updated      time.Time      `json:"updated"`
}

// Public возвращает копию пользователя без приватных полей для чужих глаз.
func (u User) Public() User {
	u.Email = ""
	u.PasswordHash = ""
	return u
}

// ProfilePatch изменения профиля. nil означает «не менять».
// ClearQuitDate сбрасывает дату отказа в NULL.
type ProfilePatch struct {
	Username      *string
	QuitDate      *calendar.Date
	ClearQuitDate bool
	IsPublic      *bool
}

// DummyRegister тело запроса регистрации.
type DummyRegister struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// DummyLogin тело запроса входа.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// DummyProfile тело запроса изменения профиля.
// quit_date: строка с датой, пустая строка сбрасывает значение, без поля значение не меняется.
type DummyProfile struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=64"`
	QuitDate *string `json:"quit_date,omitempty"`
	IsPublic *bool   `json:"is_public,omitempty"`
}

// Stats статистика воздержания пользователя.
type Stats struct {
	UserID           string         `json:"user_id"`
	LastUseDate      *calendar.Date `json:"last_use_date"`
	DaysSinceLastUse *int           `json:"days_since_last_use"`
	QuitDate         *calendar.Date `json:"quit_date"`
}
