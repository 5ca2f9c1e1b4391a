// Package users отдаёт профили и статистику воздержания пользователей.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/quitters/internal/cache"
	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/services"
)

// Repository определяет методы хранилища пользователей.
type Repository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error)
}

// Cache описывает методы кеша статистики.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует операции над профилями.
type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	loc      *time.Location
	today    func(*time.Location) calendar.Date
	log      *slog.Logger
}

// New создаёт Service. loc задаёт часовой пояс, в котором считается «сегодня».
func New(repo Repository, cache Cache, cacheTTL time.Duration, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		loc:      loc,
		today:    calendar.Today,
		log:      log,
	}
}

// Profile возвращает свой профиль целиком или публичный профиль другого пользователя.
func (s *Service) Profile(ctx context.Context, viewerID, userID string) (*models.User, error) {
	const op = "users.Profile"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.ID == viewerID {
		return user, nil
	}
	if !user.IsPublic {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}
	public := user.Public()
	return &public, nil
}

// UpdateProfile меняет имя, дату отказа и видимость профиля.
// Пустая строка quit_date сбрасывает дату. last_use_date не меняется.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.DummyProfile) (*models.User, error) {
	const op = "users.UpdateProfile"

	var patch models.ProfilePatch
	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return nil, fmt.Errorf("%s: %w: empty username", op, services.ErrInvalidInput)
		}
		patch.Username = &name
	}
	if req.QuitDate != nil {
		if strings.TrimSpace(*req.QuitDate) == "" {
			patch.ClearQuitDate = true
		} else {
			d, err := calendar.Parse(*req.QuitDate)
			if err != nil {
				return nil, fmt.Errorf("%s: %w: %w", op, services.ErrInvalidInput, err)
			}
			patch.QuitDate = &d
		}
	}
	patch.IsPublic = req.IsPublic

	user, err := s.repo.UpdateProfile(ctx, userID, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Invalidate(ctx, cache.StatsKey(userID)); err != nil {
		s.log.Warn("failed to invalidate stats cache", sl.UserID(userID), sl.Err(err))
	}

	s.log.Info("updated profile", sl.UserID(userID))
	return user, nil
}

// cachedStats снимок статистики в кеше. Число дней считается при чтении.
type cachedStats struct {
	UserID      string         `json:"user_id"`
	IsPublic    bool           `json:"is_public"`
	LastUseDate *calendar.Date `json:"last_use_date"`
	QuitDate    *calendar.Date `json:"quit_date"`
}

// Stats возвращает дату последнего употребления, число дней с неё и дату отказа.
func (s *Service) Stats(ctx context.Context, viewerID, userID string) (*models.Stats, error) {
	const op = "users.Stats"

	var snap cachedStats
	found, err := s.cache.Get(ctx, cache.StatsKey(userID), &snap)
	if err != nil {
		s.log.Warn("failed to read stats from cache", sl.UserID(userID), sl.Err(err))
	}
	if !found {
		user, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		snap = cachedStats{
			UserID:      user.ID,
			IsPublic:    user.IsPublic,
			LastUseDate: user.LastUseDate,
			QuitDate:    user.QuitDate,
		}
		if err = s.cache.Set(ctx, cache.StatsKey(userID), snap, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache stats", sl.UserID(userID), sl.Err(err))
		}
	}

	if snap.UserID != viewerID && !snap.IsPublic {
		return nil, fmt.Errorf("%s: %w", op, services.ErrForbidden)
	}

	stats := &models.Stats{
		UserID:      snap.UserID,
		LastUseDate: snap.LastUseDate,
		QuitDate:    snap.QuitDate,
	}
	if snap.LastUseDate != nil {
		days := max(snap.LastUseDate.DaysSince(s.today(s.loc)), 0)
		stats.DaysSinceLastUse = &days
	}
	return stats, nil
}
