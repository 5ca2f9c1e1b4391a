// Package hooks реализует шину событий жизненного цикла записей трекинга.
//
// Сервис записей вызывает Dispatch ровно один раз после каждого успешного
// создания, изменения или удаления записи. Обработчики выполняются
// синхронно, в порядке регистрации, до формирования ответа клиенту.
// Ошибка или паника обработчика логируется и проглатывается: мутация,
// породившая событие, уже зафиксирована и считается успешной.
package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/magabrotheeeer/quitters/internal/lib/sl"
	"github.com/magabrotheeeer/quitters/internal/metrics"
	"github.com/magabrotheeeer/quitters/internal/models"
)

// CollectionTrackingEntries имя коллекции записей трекинга.
const CollectionTrackingEntries = "tracking_entries"

// Kind вид события жизненного цикла.
type Kind string

const (
	// AfterCreate запись создана.
	AfterCreate Kind = "after_create"
	// AfterUpdate запись изменена.
	AfterUpdate Kind = "after_update"
	// AfterDelete запись удалена.
	AfterDelete Kind = "after_delete"
)

// Event событие о мутации записи трекинга.
// Для AfterDelete Record содержит снимок удалённой записи.
// Для AfterUpdate Previous содержит состояние записи до изменения, если оно известно.
type Event struct {
	Kind       Kind
	Collection string
	Record     models.TrackingEntry
	Previous   *models.TrackingEntry
}

// Handler обрабатывает событие. Возвращённая ошибка не прерывает остальные обработчики.
type Handler func(ctx context.Context, e Event) error

type registration struct {
	name    string
	handler Handler
}

// Bus хранит обработчики по видам событий и раздаёт им события.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]registration
	log      *slog.Logger
}

// NewBus создаёт пустую шину.
func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[Kind][]registration),
		log:      log,
	}
}

// On регистрирует обработчик на вид события.
func (b *Bus) On(kind Kind, name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], registration{name: name, handler: h})
}

// OnAfterCreate регистрирует обработчик создания записи.
func (b *Bus) OnAfterCreate(name string, h Handler) { b.On(AfterCreate, name, h) }

// OnAfterUpdate регистрирует обработчик изменения записи.
func (b *Bus) OnAfterUpdate(name string, h Handler) { b.On(AfterUpdate, name, h) }

// OnAfterDelete регистрирует обработчик удаления записи.
func (b *Bus) OnAfterDelete(name string, h Handler) { b.On(AfterDelete, name, h) }

// OnAll регистрирует один обработчик на все три вида событий.
func (b *Bus) OnAll(name string, h Handler) {
	b.OnAfterCreate(name, h)
	b.OnAfterUpdate(name, h)
	b.OnAfterDelete(name, h)
}

// Dispatch синхронно передаёт событие всем обработчикам его вида.
// Мутация к этому моменту уже зафиксирована, поэтому обработчики получают
// контекст без отмены: обрыв клиента не должен прерывать их.
func (b *Bus) Dispatch(ctx context.Context, e Event) {
	ctx = context.WithoutCancel(ctx)
	if e.Collection == "" {
		e.Collection = CollectionTrackingEntries
	}

	b.mu.RLock()
	regs := append([]registration(nil), b.handlers[e.Kind]...)
	b.mu.RUnlock()

	metrics.HookDispatch.WithLabelValues(string(e.Kind)).Inc()

	for _, reg := range regs {
		if err := b.invoke(ctx, reg, e); err != nil {
			metrics.HookFailures.WithLabelValues(string(e.Kind), reg.name).Inc()
			b.log.Error("hook handler failed",
				slog.String("kind", string(e.Kind)),
				slog.String("handler", reg.name),
				sl.EntryID(e.Record.ID),
				sl.UserID(e.Record.UserID),
				sl.Err(err),
			)
		}
	}
}

func (b *Bus) invoke(ctx context.Context, reg registration, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hooks.invoke: panic in %s: %v", reg.name, r)
		}
	}()
	return reg.handler(ctx, e)
}
