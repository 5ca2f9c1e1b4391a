// Package calendar реализует календарную дату без времени суток.
//
// Date единственное представление даты записи трекинга во всём сервисе:
// в JSON она выглядит как "YYYY-MM-DD", в PostgreSQL хранится как DATE.
// Parse нормализует устаревшие текстовые формы ("2024-03-01 00:00:00.000Z",
// RFC 3339), отбрасывая время суток.
package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout формат календарной даты на границах сервиса.
const Layout = "2006-01-02"

// ErrInvalidDate возвращается, если строку нельзя разобрать как дату.
var ErrInvalidDate = errors.New("invalid calendar date")

// Date календарная дата (год, месяц, день) без часового пояса.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New создаёт дату и нормализует переполнение дней и месяцев так же, как time.Date.
func New(year int, month time.Month, day int) Date {
	return Of(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Of возвращает календарную часть момента времени в его собственной локации.
func Of(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today возвращает текущую дату в указанной локации.
func Today(loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Of(time.Now().In(loc))
}

// Parse разбирает дату. Допускаются "YYYY-MM-DD", а также строки, где после
// даты идёт время через пробел или 'T'; время суток отбрасывается.
func Parse(s string) (Date, error) {
	const op = "calendar.Parse"
	s = strings.TrimSpace(s)
	if len(s) > len(Layout) {
		switch s[len(Layout)] {
		case ' ', 'T', 't':
			s = s[:len(Layout)]
		default:
			return Date{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidDate, s)
		}
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidDate, s)
	}
	return Of(t), nil
}

// MustParse как Parse, но паникует при ошибке. Предназначена для тестов и констант.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String возвращает дату в формате YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero сообщает, что дата не задана.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time возвращает полночь даты в UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before сообщает, что d раньше other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After сообщает, что d позже other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// AddDays сдвигает дату на n дней.
func (d Date) AddDays(n int) Date {
	return Of(d.Time().AddDate(0, 0, n))
}

// DaysSince возвращает количество полных дней от d до now. Отрицательно, если d в будущем.
func (d Date) DaysSince(now Date) int {
	return int(now.Time().Sub(d.Time()).Hours() / 24)
}

// MonthRange возвращает первый и последний день календарного месяца.
func MonthRange(year int, month time.Month) (Date, Date) {
	first := New(year, month, 1)
	last := Of(first.Time().AddDate(0, 1, -1))
	return first, last
}

// MarshalJSON кодирует дату строкой YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON принимает строку в любом формате, который понимает Parse.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("calendar.UnmarshalJSON: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value реализует driver.Valuer: в базу дата уходит строкой YYYY-MM-DD.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan реализует sql.Scanner для колонок DATE и устаревших текстовых значений.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Of(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("calendar.Scan: unsupported type %T", src)
	}
}

// NullDate дата, допускающая NULL в базе.
type NullDate struct {
	Date  Date
	Valid bool
}

// Scan реализует sql.Scanner.
func (n *NullDate) Scan(src any) error {
	if src == nil {
		n.Date, n.Valid = Date{}, false
		return nil
	}
	if s, ok := src.(string); ok && strings.TrimSpace(s) == "" {
		n.Date, n.Valid = Date{}, false
		return nil
	}
	if err := n.Date.Scan(src); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value реализует driver.Valuer.
func (n NullDate) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Date.Value()
}

// Ptr возвращает указатель на дату или nil для NULL.
func (n NullDate) Ptr() *Date {
	if !n.Valid {
		return nil
	}
	d := n.Date
	return &d
}

// FromPtr строит NullDate из указателя.
func FromPtr(d *Date) NullDate {
	if d == nil {
		return NullDate{}
	}
	return NullDate{Date: *d, Valid: true}
}
