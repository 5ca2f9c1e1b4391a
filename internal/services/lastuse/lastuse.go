// Package lastuse поддерживает производное поле users.last_use_date.
//
// После каждого создания, изменения и удаления записи трекинга Maintainer
// пересчитывает дату последнего употребления владельца записи: дату самой
// поздней учитываемой записи или NULL, если таких нет. Пересчёт работает как кеш
// «по мере возможности»: его ошибка не отменяет мутацию записи.
package lastuse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/quitters/internal/hooks"
	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/metrics"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/storage"
)

// Repository описывает операции хранилища, нужные для пересчёта.
type Repository interface {
	// FindLatestEntry возвращает самую позднюю по дате запись пользователя,
	// вид которой не входит в exclude, или nil, если записей нет.
	FindLatestEntry(ctx context.Context, userID string, exclude []models.EntryType) (*models.TrackingEntry, error)
	// GetUser возвращает пользователя или storage.ErrUserNotFound.
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// SaveLastUseDate сохраняет производное поле пользователя. nil пишет NULL.
	SaveLastUseDate(ctx context.Context, userID string, date *calendar.Date) error
}

// Policy определяет, какие записи считаются употреблением.
// Одна и та же политика применяется для создания, изменения и удаления.
type Policy struct {
	// CountNicotineReplacement включает записи nicotine_replacement в расчёт.
	CountNicotineReplacement bool
}

// Excluded возвращает виды записей, которые не учитываются.
func (p Policy) Excluded() []models.EntryType {
	if p.CountNicotineReplacement {
		return nil
	}
	return []models.EntryType{models.EntryTypeNicotineReplacement}
}

// Qualifies сообщает, учитывается ли запись данного вида.
func (p Policy) Qualifies(t models.EntryType) bool {
	for _, ex := range p.Excluded() {
		if ex == t {
			return false
		}
	}
	return true
}

// Maintainer пересчитывает users.last_use_date.
type Maintainer struct {
	repo   Repository
	policy Policy
	log    *slog.Logger
}

// New создаёт Maintainer.
func New(repo Repository, policy Policy, log *slog.Logger) *Maintainer {
	return &Maintainer{
		repo:   repo,
		policy: policy,
		log:    log,
	}
}

// Register подписывает Maintainer на создание, изменение и удаление записей.
func (m *Maintainer) Register(bus *hooks.Bus) {
	bus.OnAll("last_use_date", m.HandleEvent)
}

// Recompute пересчитывает last_use_date пользователя.
//
// Пустой userID и отсутствующий пользователь не ошибка, а пропуск.
// Делает один запрос к записям и не более одного чтения и одной записи пользователя.
func (m *Maintainer) Recompute(ctx context.Context, userID string) error {
	const op = "lastuse.Recompute"

	if userID == "" {
		metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeNoop).Inc()
		return nil
	}

	latest, err := m.repo.FindLatestEntry(ctx, userID, m.policy.Excluded())
	if err != nil {
		metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	var lastUse *calendar.Date
	if latest != nil {
		d := latest.Date
		lastUse = &d
	}

	if _, err := m.repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			m.log.Debug("user vanished before recompute", sl.UserID(userID))
			metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeNoop).Inc()
			return nil
		}
		metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.repo.SaveLastUseDate(ctx, userID, lastUse); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeNoop).Inc()
			return nil
		}
		metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.LastUseRecompute.WithLabelValues(metrics.OutcomeUpdated).Inc()
	m.log.Debug("last_use_date recomputed", sl.UserID(userID), slog.Any("last_use_date", lastUse))
	return nil
}

// HandleEvent обработчик шины событий. Пересчитывает владельца записи,
// а если запись сменила владельца, то и прежнего.
func (m *Maintainer) HandleEvent(ctx context.Context, e hooks.Event) error {
	err := m.Recompute(ctx, e.Record.UserID)
	if e.Previous != nil && e.Previous.UserID != "" && e.Previous.UserID != e.Record.UserID {
		err = errors.Join(err, m.Recompute(ctx, e.Previous.UserID))
	}
	return err
}
