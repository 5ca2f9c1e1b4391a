package lastuse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/quitters/internal/cache"
	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/metrics"
)

const reconcilePageSize = 200

// UserLister постранично перечисляет идентификаторы пользователей.
type UserLister interface {
	ListUserIDs(ctx context.Context, limit, offset int) ([]string, error)
}

// StatsInvalidator сбрасывает закешированную статистику пользователей.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Reconciler периодически пересчитывает last_use_date всех пользователей,
// исправляя значения, устаревшие после неудачных пересчётов в хуках.
type Reconciler struct {
	maintainer *Maintainer
	users      UserLister
	stats      StatsInvalidator
	interval   time.Duration
	log        *slog.Logger
}

// NewReconciler создаёт Reconciler. interval <= 0 отключает периодический запуск.
// stats может быть nil, если кеш не используется.
func NewReconciler(maintainer *Maintainer, users UserLister, stats StatsInvalidator, interval time.Duration, log *slog.Logger) *Reconciler {
	return &Reconciler{
		maintainer: maintainer,
		users:      users,
		stats:      stats,
		interval:   interval,
		log:        log,
	}
}

// Reconcile проходит по всем пользователям. Ошибка отдельного пользователя
// логируется и не останавливает прогон; возвращается число ошибок.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	const op = "lastuse.Reconcile"

	failed := 0
	for offset := 0; ; offset += reconcilePageSize {
		ids, err := r.users.ListUserIDs(ctx, reconcilePageSize, offset)
		if err != nil {
			return failed, fmt.Errorf("%s: %w", op, err)
		}
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return failed, fmt.Errorf("%s: %w", op, err)
			}
			if err := r.maintainer.Recompute(ctx, id); err != nil {
				failed++
				r.log.Error("failed to reconcile last_use_date", sl.UserID(id), sl.Err(err))
				continue
			}
			keys = append(keys, cache.StatsKey(id))
		}
		r.invalidate(ctx, keys)
		if len(ids) < reconcilePageSize {
			break
		}
	}
	metrics.ReconcileRuns.Inc()
	return failed, nil
}

// Run выполняет сверку сразу и затем по тикеру до отмены контекста.
func (r *Reconciler) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Info("last_use_date reconciler disabled")
		return
	}

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("stopping last_use_date reconciler")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reconciler) invalidate(ctx context.Context, keys []string) {
	if r.stats == nil || len(keys) == 0 {
		return
	}
	if err := r.stats.Invalidate(ctx, keys...); err != nil {
		r.log.Warn("failed to invalidate cached stats", slog.Int("keys", len(keys)), sl.Err(err))
	}
}

func (r *Reconciler) runOnce(ctx context.Context) {
	r.log.Info("starting last_use_date reconciliation")
	failed, err := r.Reconcile(ctx)
	if err != nil {
		r.log.Error("reconciliation aborted", sl.Err(err))
		return
	}
	r.log.Info("reconciliation finished", slog.Int("failed", failed))
}
