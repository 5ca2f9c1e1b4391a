package hooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quitters/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestBus_DispatchOrderAndKinds(t *testing.T) {
	bus := NewBus(newNoopLogger())

	var calls []string
	record := func(name string) Handler {
		return func(_ context.Context, e Event) error {
			calls = append(calls, name+":"+string(e.Kind))
			return nil
		}
	}

	bus.OnAfterCreate("first", record("first"))
	bus.OnAfterCreate("second", record("second"))
	bus.OnAfterDelete("deleter", record("deleter"))
	bus.OnAll("all", record("all"))

	bus.Dispatch(context.Background(), Event{Kind: AfterCreate})
	assert.Equal(t, []string{"first:after_create", "second:after_create", "all:after_create"}, calls)

	calls = nil
	bus.Dispatch(context.Background(), Event{Kind: AfterUpdate})
	assert.Equal(t, []string{"all:after_update"}, calls)

	calls = nil
	bus.Dispatch(context.Background(), Event{Kind: AfterDelete})
	assert.Equal(t, []string{"deleter:after_delete", "all:after_delete"}, calls)
}

func TestBus_FailingHandlersAreSwallowed(t *testing.T) {
	bus := NewBus(newNoopLogger())

	var reached bool
	bus.OnAfterUpdate("fails", func(context.Context, Event) error {
		return errors.New("db down")
	})
	bus.OnAfterUpdate("panics", func(context.Context, Event) error {
		panic("boom")
	})
	bus.OnAfterUpdate("last", func(context.Context, Event) error {
		reached = true
		return nil
	})

	require.NotPanics(t, func() {
		bus.Dispatch(context.Background(), Event{Kind: AfterUpdate})
	})
	assert.True(t, reached, "handlers after a failing one must still run")
}

func TestBus_DefaultsCollectionAndPassesRecord(t *testing.T) {
	bus := NewBus(newNoopLogger())

	var got Event
	bus.OnAfterDelete("capture", func(_ context.Context, e Event) error {
		got = e
		return nil
	})

	entry := models.TrackingEntry{ID: "e1", UserID: "u1", Type: models.EntryTypeSmoked}
	bus.Dispatch(context.Background(), Event{Kind: AfterDelete, Record: entry})

	assert.Equal(t, CollectionTrackingEntries, got.Collection)
	assert.Equal(t, entry, got.Record)
}

type ctxKey struct{}

func TestBus_HandlersSurviveCancelledRequest(t *testing.T) {
	bus := NewBus(newNoopLogger())

	var (
		handlerErr error
		value      any
	)
	bus.OnAfterCreate("recompute", func(ctx context.Context, _ Event) error {
		handlerErr = ctx.Err()
		value = ctx.Value(ctxKey{})
		return nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey{}, "req-1"))
	cancel()
	bus.Dispatch(ctx, Event{Kind: AfterCreate})

	require.NoError(t, handlerErr)
	assert.Equal(t, "req-1", value)
}
