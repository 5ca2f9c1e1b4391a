package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quitters/internal/hooks"
	"github.com/magabrotheeeer/quitters/internal/lib/calendar"
	"github.com/magabrotheeeer/quitters/internal/models"
	"github.com/magabrotheeeer/quitters/internal/rabbitmq"
)

type BrokerMock struct {
	mock.Mock
}

func (m *BrokerMock) Publish(ctx context.Context, routingKey string, message any) error {
	args := m.Called(ctx, routingKey, message)
	return args.Error(0)
}

type InvalidatorMock struct {
	mock.Mock
}

func (m *InvalidatorMock) Invalidate(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func entry(id, user string) models.TrackingEntry {
	return models.TrackingEntry{ID: id, UserID: user, Date: calendar.MustParse("2024-01-01"), Type: models.EntryTypeSmoked}
}

func TestPublisher_HandleEvent(t *testing.T) {
	tests := []struct {
		name    string
		kind    hooks.Kind
		wantKey string
	}{
		{name: "создание", kind: hooks.AfterCreate, wantKey: rabbitmq.RoutingEntryCreated},
		{name: "изменение", kind: hooks.AfterUpdate, wantKey: rabbitmq.RoutingEntryUpdated},
		{name: "удаление", kind: hooks.AfterDelete, wantKey: rabbitmq.RoutingEntryDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broker := new(BrokerMock)
			rec := entry("e1", "u1")
			broker.On("Publish", mock.Anything, tt.wantKey, Message{Kind: tt.kind, Entry: rec}).Return(nil).Once()

			err := NewPublisher(broker).HandleEvent(context.Background(), hooks.Event{Kind: tt.kind, Record: rec})
			require.NoError(t, err)
			broker.AssertExpectations(t)
		})
	}
}

func TestPublisher_Errors(t *testing.T) {
	broker := new(BrokerMock)
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))
	p := NewPublisher(broker)

	err := p.HandleEvent(context.Background(), hooks.Event{Kind: hooks.AfterCreate, Record: entry("e1", "u1")})
	assert.ErrorContains(t, err, "channel closed")

	err = p.HandleEvent(context.Background(), hooks.Event{Kind: "after_truncate"})
	assert.Error(t, err)
}

func TestInvalidator_Keys(t *testing.T) {
	tests := []struct {
		name     string
		event    hooks.Event
		wantKeys []string
	}{
		{
			name:     "запись с владельцем",
			event:    hooks.Event{Kind: hooks.AfterCreate, Record: entry("e1", "u1")},
			wantKeys: []string{"entry:e1", "stats:u1"},
		},
		{
			name:     "запись без владельца",
			event:    hooks.Event{Kind: hooks.AfterDelete, Record: entry("e1", "")},
			wantKeys: []string{"entry:e1"},
		},
		{
			name: "смена владельца",
			event: hooks.Event{
				Kind:     hooks.AfterUpdate,
				Record:   entry("e1", "u2"),
				Previous: &models.TrackingEntry{ID: "e1", UserID: "u1"},
			},
			wantKeys: []string{"entry:e1", "stats:u2", "stats:u1"},
		},
		{
			name: "тот же владелец",
			event: hooks.Event{
				Kind:     hooks.AfterUpdate,
				Record:   entry("e1", "u1"),
				Previous: &models.TrackingEntry{ID: "e1", UserID: "u1"},
			},
			wantKeys: []string{"entry:e1", "stats:u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(InvalidatorMock)
			c.On("Invalidate", mock.Anything, tt.wantKeys).Return(nil).Once()

			require.NoError(t, NewInvalidator(c).HandleEvent(context.Background(), tt.event))
			c.AssertExpectations(t)
		})
	}
}

func TestHandlersOnBus(t *testing.T) {
	bus := hooks.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))

	c := new(InvalidatorMock)
	c.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	broker := new(BrokerMock)
	broker.On("Publish", mock.Anything, rabbitmq.RoutingEntryDeleted, mock.Anything).Return(nil).Once()

	NewInvalidator(c).Register(bus)
	NewPublisher(broker).Register(bus)

	bus.Dispatch(context.Background(), hooks.Event{Kind: hooks.AfterDelete, Record: entry("e1", "u1")})

	c.AssertNumberOfCalls(t, "Invalidate", 1)
	broker.AssertExpectations(t)
}
