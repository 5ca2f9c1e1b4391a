package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/storage"
)

const entryColumns = `id, user_id, date, type, created, updated`

func scanEntry(row rowScanner) (*models.TrackingEntry, error) {
	var (
		e      models.TrackingEntry
		userID sql.NullString
		typ    string
	)
	if err := row.Scan(&e.ID, &userID, &e.Date, &typ, &e.Created, &e.Updated); err != nil {
		return nil, err
	}
	e.UserID = userID.String
	e.Type = models.EntryType(typ)
	return &e, nil
}

func nullableUser(userID string) sql.NullString {
	return sql.NullString{String: userID, Valid: userID != ""}
}

func typeStrings(types []models.EntryType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

// CreateEntry вставляет новую запись трекинга и возвращает её вместе с системными полями.
func (s *Storage) CreateEntry(ctx context.Context, entry models.TrackingEntry) (*models.TrackingEntry, error) {
	const op = "storage.CreateEntry"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO tracking_entries (user_id, date, type)
			  VALUES ($1, $2, $3)
			  RETURNING ` + entryColumns
	created, err := scanEntry(s.DB.QueryRowContext(ctx, query,
		nullableUser(entry.UserID), entry.Date, string(entry.Type)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// ReadEntry возвращает запись по ID.
func (s *Storage) ReadEntry(ctx context.Context, id string) (*models.TrackingEntry, error) {
	const op = "storage.ReadEntry"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
	}

	query := `SELECT ` + entryColumns + `
			  FROM tracking_entries WHERE id = $1`
	e, err := scanEntry(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// ReadEntryByDate возвращает запись пользователя на дату.
func (s *Storage) ReadEntryByDate(ctx context.Context, userID string, date calendar.Date) (*models.TrackingEntry, error) {
	const op = "storage.ReadEntryByDate"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
	}

	query := `SELECT ` + entryColumns + `
			  FROM tracking_entries
			  WHERE user_id = $1 AND date = $2`
	e, err := scanEntry(s.DB.QueryRowContext(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}

// UpdateEntry перезаписывает владельца, дату и вид записи и возвращает новое состояние.
func (s *Storage) UpdateEntry(ctx context.Context, entry models.TrackingEntry) (*models.TrackingEntry, error) {
	const op = "storage.UpdateEntry"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(entry.ID) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
	}

	query := `UPDATE tracking_entries
			  SET user_id = $1, date = $2, type = $3, updated = NOW()
			  WHERE id = $4
			  RETURNING ` + entryColumns
	updated, err := scanEntry(s.DB.QueryRowContext(ctx, query,
		nullableUser(entry.UserID), entry.Date, string(entry.Type), entry.ID))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// RemoveEntry удаляет запись по ID и возвращает снимок удалённой записи.
func (s *Storage) RemoveEntry(ctx context.Context, id string) (*models.TrackingEntry, error) {
	const op = "storage.RemoveEntry"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
	}

	query := `DELETE FROM tracking_entries WHERE id = $1
			  RETURNING ` + entryColumns
	removed, err := scanEntry(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrEntryNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return removed, nil
}

// ListEntries возвращает записи пользователя в диапазоне дат (границы включительно,
// nil означает отсутствие границы), от новых к старым. limit <= 0 снимает ограничение.
func (s *Storage) ListEntries(ctx context.Context, userID string, from, to *calendar.Date, limit int) ([]*models.TrackingEntry, error) {
	const op = "storage.ListEntries"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, nil
	}

	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	query := `SELECT ` + entryColumns + `
			  FROM tracking_entries
			  WHERE user_id = $1
			    AND ($2::date IS NULL OR date >= $2::date)
			    AND ($3::date IS NULL OR date <= $3::date)
			  ORDER BY date DESC, created DESC
			  LIMIT $4`
	rows, err := s.DB.QueryContext(ctx, query, userID, calendar.FromPtr(from), calendar.FromPtr(to), lim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TrackingEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindLatestEntry возвращает самую позднюю по дате запись пользователя, вид которой
// не входит в exclude. При равных датах берётся более поздняя по времени создания.
// Если записей нет, возвращает nil без ошибки.
func (s *Storage) FindLatestEntry(ctx context.Context, userID string, exclude []models.EntryType) (*models.TrackingEntry, error) {
	const op = "storage.FindLatestEntry"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, nil
	}

	query := `SELECT ` + entryColumns + `
			  FROM tracking_entries
			  WHERE user_id = $1
			    AND type <> ALL($2::text[])
			  ORDER BY date DESC, created DESC
			  LIMIT 1`
	e, err := scanEntry(s.DB.QueryRowContext(ctx, query, userID, typeStrings(exclude)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return e, nil
}
