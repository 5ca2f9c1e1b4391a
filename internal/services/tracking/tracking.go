// Package tracking содержит бизнес-логику записей трекинга: создание,
// чтение, изменение и удаление записей, операции «по дате» и выборки.
//
// После каждой успешной мутации сервис ровно один раз отправляет событие
// в шину hooks и только затем возвращает результат вызывающему.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/quitters/internal/cache"
	"github.com/magabrotheeeer/quitters/internal/hooks"
	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/services"
	"github.com/magabrotheeeer/quitters/internal/storage"
)

// MaxMonthEntries ограничивает выборку записей за месяц.
const MaxMonthEntries = 100

// Repository определяет методы хранилища для работы с записями.
type Repository interface {
	CreateEntry(ctx context.Context, entry models.TrackingEntry) (*models.TrackingEntry, error)
	ReadEntry(ctx context.Context, id string) (*models.TrackingEntry, error)
	ReadEntryByDate(ctx context.Context, userID string, date calendar.Date) (*models.TrackingEntry, error)
	UpdateEntry(ctx context.Context, entry models.TrackingEntry) (*models.TrackingEntry, error)
	RemoveEntry(ctx context.Context, id string) (*models.TrackingEntry, error)
	ListEntries(ctx context.Context, userID string, from, to *calendar.Date, limit int) ([]*models.TrackingEntry, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// Cache описывает методы для кеширования снимков записей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Dispatcher отправляет события жизненного цикла записей.
type Dispatcher interface {
	Dispatch(ctx context.Context, e hooks.Event)
}

// Service реализует операции над записями трекинга.
type Service struct {
	repo     Repository
	cache    Cache
	bus      Dispatcher
	cacheTTL time.Duration
	log      *slog.Logger
}

// New создаёт Service.
func New(repo Repository, cache Cache, bus Dispatcher, cacheTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		bus:      bus,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

func parseType(raw string) (models.EntryType, error) {
	t := models.EntryType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown entry type %q", services.ErrInvalidInput, raw)
	}
	return t, nil
}

func parseDate(raw string) (calendar.Date, error) {
	d, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("%w: %w", services.ErrInvalidInput, err)
	}
	return d, nil
}

// Create создаёт запись пользователя userID.
func (s *Service) Create(ctx context.Context, userID string, req models.DummyEntry) (*models.TrackingEntry, error) {
	const op = "tracking.Create"

	date, err := parseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	typ, err := parseType(req.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreateEntry(ctx, models.TrackingEntry{UserID: userID, Date: date, Type: typ})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.bus.Dispatch(ctx, hooks.Event{Kind: hooks.AfterCreate, Record: *created})

	s.log.Info("created tracking entry", sl.EntryID(created.ID), sl.UserID(userID))
	s.store(ctx, created)
	return created, nil
}

// Read возвращает запись, если она принадлежит viewerID или её владелец публичный.
func (s *Service) Read(ctx context.Context, viewerID, id string) (*models.TrackingEntry, error) {
	const op = "tracking.Read"

	var entry *models.TrackingEntry
	found, err := s.cache.Get(ctx, cache.EntryKey(id), &entry)
	if err != nil {
		s.log.Warn("failed to read entry from cache", sl.EntryID(id), sl.Err(err))
	}
	if !found || entry == nil {
		entry, err = s.repo.ReadEntry(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s.store(ctx, entry)
	}

	if err = s.checkVisible(ctx, viewerID, entry.UserID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// Update меняет дату и/или вид записи. Доступно только владельцу.
func (s *Service) Update(ctx context.Context, userID, id string, req models.DummyEntryPatch) (*models.TrackingEntry, error) {
	const op = "tracking.Update"

	prev, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	next := *prev
	if req.Date != "" {
		if next.Date, err = parseDate(req.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if req.Type != "" {
		if next.Type, err = parseType(req.Type); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return s.update(ctx, op, *prev, next)
}

// Remove удаляет запись. Доступно только владельцу.
func (s *Service) Remove(ctx context.Context, userID, id string) (*models.TrackingEntry, error) {
	const op = "tracking.Remove"

	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.remove(ctx, op, id)
}

// SetForDate устанавливает вид записи пользователя на дату: создаёт запись,
// если её нет, или меняет вид существующей. created сообщает, была ли запись создана.
// Если вид уже совпадает, мутации и события нет.
func (s *Service) SetForDate(ctx context.Context, userID, rawDate, rawType string) (entry *models.TrackingEntry, created bool, err error) {
	const op = "tracking.SetForDate"

	date, err := parseDate(rawDate)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	typ, err := parseType(rawType)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.repo.ReadEntryByDate(ctx, userID, date)
	switch {
	case errors.Is(err, storage.ErrEntryNotFound):
		entry, err = s.Create(ctx, userID, models.DummyEntry{Date: date.String(), Type: string(typ)})
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return entry, true, nil
	case err != nil:
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if existing.Type == typ {
		return existing, false, nil
	}
	next := *existing
	next.Type = typ
	entry, err = s.update(ctx, op, *existing, next)
	return entry, false, err
}

// RemoveForDate удаляет запись пользователя на дату.
func (s *Service) RemoveForDate(ctx context.Context, userID, rawDate string) (*models.TrackingEntry, error) {
	const op = "tracking.RemoveForDate"

	date, err := parseDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	existing, err := s.repo.ReadEntryByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.remove(ctx, op, existing.ID)
}

// ListMonth возвращает записи ownerID за календарный месяц, от новых к старым,
// не более MaxMonthEntries.
func (s *Service) ListMonth(ctx context.Context, viewerID, ownerID string, year int, month time.Month) ([]*models.TrackingEntry, error) {
	const op = "tracking.ListMonth"

	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return nil, fmt.Errorf("%s: %w: year %d month %d", op, services.ErrInvalidInput, year, month)
	}
	if err := s.checkVisible(ctx, viewerID, ownerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from, to := calendar.MonthRange(year, month)
	entries, err := s.repo.ListEntries(ctx, ownerID, &from, &to, MaxMonthEntries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

// ListAll возвращает все записи ownerID от новых к старым.
func (s *Service) ListAll(ctx context.Context, viewerID, ownerID string) ([]*models.TrackingEntry, error) {
	const op = "tracking.ListAll"

	if err := s.checkVisible(ctx, viewerID, ownerID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries, err := s.repo.ListEntries(ctx, ownerID, nil, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func (s *Service) update(ctx context.Context, op string, prev, next models.TrackingEntry) (*models.TrackingEntry, error) {
	updated, err := s.repo.UpdateEntry(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.bus.Dispatch(ctx, hooks.Event{Kind: hooks.AfterUpdate, Record: *updated, Previous: &prev})

	s.log.Info("updated tracking entry", sl.EntryID(updated.ID), sl.UserID(updated.UserID))
	return updated, nil
}

func (s *Service) remove(ctx context.Context, op, id string) (*models.TrackingEntry, error) {
	removed, err := s.repo.RemoveEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.bus.Dispatch(ctx, hooks.Event{Kind: hooks.AfterDelete, Record: *removed})

	s.log.Info("removed tracking entry", sl.EntryID(removed.ID), sl.UserID(removed.UserID))
	return removed, nil
}

// owned читает запись из хранилища и проверяет, что она принадлежит userID.
func (s *Service) owned(ctx context.Context, userID, id string) (*models.TrackingEntry, error) {
	entry, err := s.repo.ReadEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.UserID == "" || entry.UserID != userID {
		return nil, services.ErrForbidden
	}
	return entry, nil
}

func (s *Service) checkVisible(ctx context.Context, viewerID, ownerID string) error {
	if ownerID != "" && ownerID == viewerID {
		return nil
	}
	if ownerID == "" {
		return services.ErrForbidden
	}
	owner, err := s.repo.GetUser(ctx, ownerID)
	if err != nil {
		return err
	}
	if !owner.IsPublic {
		return services.ErrForbidden
	}
	return nil
}

func (s *Service) store(ctx context.Context, entry *models.TrackingEntry) {
	if err := s.cache.Set(ctx, cache.EntryKey(entry.ID), entry, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache entry", sl.EntryID(entry.ID), sl.Err(err))
	}
}
