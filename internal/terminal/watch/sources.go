package watch

import (
	"context"
	"fmt"

	"tillpoint/internal/pos"
)

const (
	KindWebOrders    = "web_orders"
	KindTableCharges = "table_charges"
)

var closedOrderStates = map[string]struct{}{
	pos.OrderStatusDelivered: {},
	pos.OrderStatusRejected:  {},
	pos.OrderStatusCancelled: {},
}

// OrdersAPI and ChargesAPI are the polled, read-only slices of the
// backend the watchers consume.
type OrdersAPI interface {
	ListPendingWebOrders(ctx context.Context, locationID string) ([]pos.WebOrder, error)
}

type ChargesAPI interface {
	ListPendingTableCharges(ctx context.Context, locationID string) ([]pos.TableCharge, error)
}

// WebOrderSource watches externally-created web orders. An order is open
// until it reaches a delivered, rejected or cancelled state.
func WebOrderSource(api OrdersAPI, locationID string) Source {
	return Source{
		Kind: KindWebOrders,
		Fetch: func(ctx context.Context) ([]pos.PendingEvent, error) {
			orders, err := api.ListPendingWebOrders(ctx, locationID)
			if err != nil {
				return nil, err
			}
			events := make([]pos.PendingEvent, 0, len(orders))
			for _, o := range orders {
				events = append(events, pos.PendingEvent{
					ID:           o.ID,
					Summary:      fmt.Sprintf("Nuevo pedido web de %s por %s", o.Customer, o.Total.StringFixed(2)),
					Status:       o.Status,
					DiscoveredAt: o.CreatedAt,
				})
			}
			return events, nil
		},
		IsOpen: func(e pos.PendingEvent) bool {
			_, closed := closedOrderStates[e.Status]
			return !closed
		},
		Target: func(e pos.PendingEvent) string {
			return "/web-orders/" + e.ID
		},
	}
}

// TableChargeSource watches pending in-person table charges. Every record
// the backend returns is open by construction.
func TableChargeSource(api ChargesAPI, locationID string) Source {
	return Source{
		Kind: KindTableCharges,
		Fetch: func(ctx context.Context) ([]pos.PendingEvent, error) {
			charges, err := api.ListPendingTableCharges(ctx, locationID)
			if err != nil {
				return nil, err
			}
			events := make([]pos.PendingEvent, 0, len(charges))
			for _, c := range charges {
				events = append(events, pos.PendingEvent{
					ID:           c.ID,
					Summary:      fmt.Sprintf("Cobro pendiente de %s por %s", c.TableName, c.Total.StringFixed(2)),
					Status:       "pendiente",
					DiscoveredAt: c.CreatedAt,
				})
			}
			return events, nil
		},
		IsOpen: func(pos.PendingEvent) bool { return true },
		Target: func(e pos.PendingEvent) string {
			return "/table-charges/" + e.ID
		},
	}
}
