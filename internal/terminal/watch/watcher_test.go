package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/pos"
)

type recordingChime struct {
	plays int
}

func (c *recordingChime) Play() { c.plays++ }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func eventsSource(kind string, fetch func(ctx context.Context) ([]pos.PendingEvent, error)) Source {
	return Source{
		Kind:   kind,
		Fetch:  fetch,
		IsOpen: func(pos.PendingEvent) bool { return true },
		Target: func(e pos.PendingEvent) string { return "/events/" + e.ID },
	}
}

func TestCheck_MostRecentUnseenWins(t *testing.T) {
	now := time.Now()
	events := []pos.PendingEvent{
		{ID: "e1", Summary: "older", DiscoveredAt: now.Add(-2 * time.Minute)},
		{ID: "e2", Summary: "newer", DiscoveredAt: now},
	}
	source := eventsSource("web_orders", func(ctx context.Context) ([]pos.PendingEvent, error) {
		return events, nil
	})
	seen := NewMemorySeenSet()
	alerts := NewCenter()
	chime := &recordingChime{}
	w := NewWatcher(source, seen, alerts, chime, quietLogger())

	w.Check(context.Background())

	active := alerts.Active()
	require.Len(t, active, 1, "one alert per tick, even with several unseen records")
	assert.Equal(t, "e2", active[0].EventID)
	assert.Equal(t, "newer", active[0].Summary)
	assert.Equal(t, "/events/e2", active[0].Target)
	assert.Equal(t, 1, chime.plays)

	// The older record was not consumed; it surfaces on the next tick.
	w.Check(context.Background())
	active = alerts.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "e1", active[1].EventID)

	// Nothing left after both are seen.
	w.Check(context.Background())
	assert.Len(t, alerts.Active(), 2)
}

func TestCheck_ClosedRecordsIgnored(t *testing.T) {
	source := Source{
		Kind: "web_orders",
		Fetch: func(ctx context.Context) ([]pos.PendingEvent, error) {
			return []pos.PendingEvent{
				{ID: "e1", Status: pos.OrderStatusDelivered, DiscoveredAt: time.Now()},
				{ID: "e2", Status: pos.OrderStatusCancelled, DiscoveredAt: time.Now()},
			}, nil
		},
		IsOpen: func(e pos.PendingEvent) bool {
			_, closed := closedOrderStates[e.Status]
			return !closed
		},
		Target: func(e pos.PendingEvent) string { return "/events/" + e.ID },
	}
	alerts := NewCenter()
	w := NewWatcher(source, NewMemorySeenSet(), alerts, SilentChime{}, quietLogger())

	w.Check(context.Background())

	assert.Empty(t, alerts.Active())
}

func TestCheck_PollFailureIsSilent(t *testing.T) {
	source := eventsSource("web_orders", func(ctx context.Context) ([]pos.PendingEvent, error) {
		return nil, errors.New("backend down")
	})
	alerts := NewCenter()
	chime := &recordingChime{}
	w := NewWatcher(source, NewMemorySeenSet(), alerts, chime, quietLogger())

	w.Check(context.Background())

	assert.Empty(t, alerts.Active())
	assert.Zero(t, chime.plays)
}

func TestCheck_MarksSeenBeforeAlerting(t *testing.T) {
	source := eventsSource("web_orders", func(ctx context.Context) ([]pos.PendingEvent, error) {
		return []pos.PendingEvent{{ID: "e1", DiscoveredAt: time.Now()}}, nil
	})
	seen := NewMemorySeenSet()
	alerts := NewCenter()
	w := NewWatcher(source, seen, alerts, SilentChime{}, quietLogger())

	w.Check(context.Background())
	w.Check(context.Background())

	assert.Len(t, alerts.Active(), 1, "a seen record never re-alerts")
	contained, err := seen.Contains(context.Background(), "e1")
	require.NoError(t, err)
	assert.True(t, contained)
}

func TestRun_ChecksImmediatelyThenStopsOnCancel(t *testing.T) {
	calls := make(chan struct{}, 1)
	source := eventsSource("web_orders", func(ctx context.Context) ([]pos.PendingEvent, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return nil, nil
	})
	w := NewWatcher(source, NewMemorySeenSet(), NewCenter(), SilentChime{}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("expected an immediate check on start")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

type staticOrdersAPI struct {
	orders []pos.WebOrder
}

func (s staticOrdersAPI) ListPendingWebOrders(ctx context.Context, locationID string) ([]pos.WebOrder, error) {
	return s.orders, nil
}

func TestWebOrderSource(t *testing.T) {
	api := staticOrdersAPI{orders: []pos.WebOrder{
		{ID: "w1", Customer: "Marta", Total: decimal.NewFromInt(12500), Status: "pendiente", CreatedAt: time.Now()},
	}}
	source := WebOrderSource(api, "loc-1")

	events, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Nuevo pedido web de Marta por 12500.00", events[0].Summary)
	assert.True(t, source.IsOpen(events[0]))
	assert.Equal(t, "/web-orders/w1", source.Target(events[0]))

	for _, status := range []string{pos.OrderStatusDelivered, pos.OrderStatusRejected, pos.OrderStatusCancelled} {
		assert.False(t, source.IsOpen(pos.PendingEvent{Status: status}), status)
	}
}

type staticChargesAPI struct {
	charges []pos.TableCharge
}

func (s staticChargesAPI) ListPendingTableCharges(ctx context.Context, locationID string) ([]pos.TableCharge, error) {
	return s.charges, nil
}

func TestTableChargeSource(t *testing.T) {
	api := staticChargesAPI{charges: []pos.TableCharge{
		{ID: "c1", TableName: "Mesa 7", Total: decimal.NewFromInt(34000), CreatedAt: time.Now()},
	}}
	source := TableChargeSource(api, "loc-1")

	events, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Cobro pendiente de Mesa 7 por 34000.00", events[0].Summary)
	assert.True(t, source.IsOpen(events[0]))
	assert.Equal(t, "/table-charges/c1", source.Target(events[0]))
}

func TestMemorySeenSet_EvictsOldest(t *testing.T) {
	s := NewMemorySeenSet()
	ctx := context.Background()

	for i := 0; i < SeenSetCapacity+1; i++ {
		require.NoError(t, s.MarkSeen(ctx, fmt.Sprintf("id-%d", i)))
	}

	assert.Equal(t, SeenSetCapacity, s.Len())

	oldest, err := s.Contains(ctx, "id-0")
	require.NoError(t, err)
	assert.False(t, oldest, "the oldest id is evicted past capacity")

	newest, err := s.Contains(ctx, fmt.Sprintf("id-%d", SeenSetCapacity))
	require.NoError(t, err)
	assert.True(t, newest)
}

func TestMemorySeenSet_MarkSeenIsIdempotent(t *testing.T) {
	s := NewMemorySeenSet()
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "id-1"))
	require.NoError(t, s.MarkSeen(ctx, "id-1"))

	assert.Equal(t, 1, s.Len())
}

func TestCenter_DismissAndClear(t *testing.T) {
	c := NewCenter()
	a := c.Publish("web_orders", "e1", "summary", "/web-orders/e1")
	c.Publish("table_charges", "e2", "summary", "/table-charges/e2")

	require.NoError(t, c.Dismiss(a.ID))
	assert.Len(t, c.Active(), 1)
	assert.ErrorIs(t, c.Dismiss(a.ID), ErrAlertNotFound)

	c.Clear()
	assert.Empty(t, c.Active())
}
