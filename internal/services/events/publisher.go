// Package events содержит обработчики шины событий, не связанные с
// пересчётом last_use_date: публикацию в RabbitMQ и сброс кеша.
package events

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/quitters/internal/hooks"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/rabbitmq"
)

// Broker публикует сообщение с ключом маршрутизации.
type Broker interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Message тело сообщения о мутации записи.
type Message struct {
	Kind     hooks.Kind            `json:"kind"`
	Entry    models.TrackingEntry  `json:"entry"`
	Previous *models.TrackingEntry `json:"previous,omitempty"`
}

// RoutingKey возвращает ключ маршрутизации для вида события.
func RoutingKey(kind hooks.Kind) (string, bool) {
	switch kind {
	case hooks.AfterCreate:
		return rabbitmq.RoutingEntryCreated, true
	case hooks.AfterUpdate:
		return rabbitmq.RoutingEntryUpdated, true
	case hooks.AfterDelete:
		return rabbitmq.RoutingEntryDeleted, true
	}
	return "", false
}

// Publisher пересылает события шины в брокер.
type Publisher struct {
	broker Broker
}

// NewPublisher создаёт Publisher.
func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// Register подписывает Publisher на все события записей.
func (p *Publisher) Register(bus *hooks.Bus) {
	bus.OnAll("events_publisher", p.HandleEvent)
}

// HandleEvent публикует событие.
func (p *Publisher) HandleEvent(ctx context.Context, e hooks.Event) error {
	const op = "events.Publisher.HandleEvent"
	key, ok := RoutingKey(e.Kind)
	if !ok {
		return fmt.Errorf("%s: unknown event kind %q", op, e.Kind)
	}
	if err := p.broker.Publish(ctx, key, Message{Kind: e.Kind, Entry: e.Record, Previous: e.Previous}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
