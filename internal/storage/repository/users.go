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

const userColumns = `id, email, username, password_hash, quit_date, is_public,
			      last_use_date, created, updated`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                 models.User
		quitDate, lastUse calendar.NullDate
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &quitDate,
		&u.IsPublic, &lastUse, &u.Created, &u.Updated); err != nil {
		return nil, err
	}
	u.QuitDate = quitDate.Ptr()
	u.LastUseDate = lastUse.Ptr()
	return &u, nil
}

// RegisterUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	if err := ctxDone(ctx, op); err != nil {
		return "", err
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, quit_date, is_public)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, calendar.FromPtr(user.QuitDate),
		user.IsPublic).Scan(&newID); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE lower(email) = lower($1)`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateProfile применяет изменения профиля и возвращает обновлённого пользователя.
// Поле last_use_date здесь не меняется.
func (s *Storage) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	const op = "storage.UpdateProfile"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if !validID(userID) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	var username sql.NullString
	if patch.Username != nil {
		username = sql.NullString{String: *patch.Username, Valid: true}
	}
	var isPublic sql.NullBool
	if patch.IsPublic != nil {
		isPublic = sql.NullBool{Bool: *patch.IsPublic, Valid: true}
	}

	query := `UPDATE users
			  SET username = COALESCE($2, username),
			      quit_date = CASE WHEN $3 THEN NULL ELSE COALESCE($4::date, quit_date) END,
			      is_public = COALESCE($5, is_public),
			      updated = NOW()
			  WHERE id = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		userID, username, patch.ClearQuitDate, calendar.FromPtr(patch.QuitDate), isPublic))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SaveLastUseDate записывает производное поле last_use_date. nil пишет NULL.
func (s *Storage) SaveLastUseDate(ctx context.Context, userID string, date *calendar.Date) error {
	const op = "storage.SaveLastUseDate"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	if !validID(userID) {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	query := `UPDATE users
			  SET last_use_date = $1, updated = NOW()
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, calendar.FromPtr(date), userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// ListUserIDs возвращает идентификаторы пользователей с пагинацией.
func (s *Storage) ListUserIDs(ctx context.Context, limit, offset int) ([]string, error) {
	const op = "storage.ListUserIDs"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id FROM users
			  ORDER BY created, id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
