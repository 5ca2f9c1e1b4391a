package events

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/quitters/internal/cache"
	"github.com/magabrotheeeer/quitters/internal/hooks"
)

// KeyInvalidator удаляет ключи кеша.
type KeyInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Invalidator сбрасывает кеш записи и статистики её владельцев.
type Invalidator struct {
	cache KeyInvalidator
}

// NewInvalidator создаёт Invalidator.
func NewInvalidator(c KeyInvalidator) *Invalidator {
	return &Invalidator{cache: c}
}

// Register подписывает Invalidator на все события записей.
func (i *Invalidator) Register(bus *hooks.Bus) {
	bus.OnAll("cache_invalidation", i.HandleEvent)
}

// HandleEvent удаляет entry:<id> и stats:<user> для текущего и прежнего владельца.
func (i *Invalidator) HandleEvent(ctx context.Context, e hooks.Event) error {
	const op = "events.Invalidator.HandleEvent"
	keys := []string{cache.EntryKey(e.Record.ID)}
	if e.Record.UserID != "" {
		keys = append(keys, cache.StatsKey(e.Record.UserID))
	}
	if e.Previous != nil && e.Previous.UserID != "" && e.Previous.UserID != e.Record.UserID {
		keys = append(keys, cache.StatsKey(e.Previous.UserID))
	}
	if err := i.cache.Invalidate(ctx, keys...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
