package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tillpoint/internal/pos"
	"tillpoint/internal/terminal/cart"
	"tillpoint/internal/terminal/register"
)

const (
	EventSaleCreated   = "sale.created"
	eventChannelPrefix = "pos:events:"
	eventChannelAll    = "pos:events:all"
)

var (
	ErrEmptyPaymentType = errors.New("payment type is required")
	ErrRegisterClosed   = errors.New("register session is not open")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrBlankTicketName  = errors.New("held ticket name is required")
)

// Backend is the slice of the collaborator API checkout needs.
type Backend interface {
	SubmitSale(ctx context.Context, locationID string, lines []pos.SaleLine, total decimal.Decimal, paymentType, orderType string) (string, error)
	SaveHeldTicket(ctx context.Context, locationID, name string, lines []pos.SaleLine, total decimal.Decimal) error
}

// TicketSink receives a just-completed sale for auto-printing.
type TicketSink interface {
	AutoPrint(ctx context.Context, sale pos.Sale)
}

// Orchestrator converts the cart into a persisted sale: local validation
// first, then normalization, then a single submit. Nothing is retried
// automatically; a failed submit leaves the cart untouched for the
// operator to correct and retry.
type Orchestrator struct {
	cart     *cart.Store
	register *register.Manager
	backend  Backend
	tickets  TicketSink
	redis    *redis.Client
	location func() string
	log      *logrus.Logger
}

func NewOrchestrator(cartStore *cart.Store, reg *register.Manager, backend Backend, tickets TicketSink, rdb *redis.Client, location func() string, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		cart:     cartStore,
		register: reg,
		backend:  backend,
		tickets:  tickets,
		redis:    rdb,
		location: location,
		log:      log,
	}
}

// Submit validates, normalizes and submits the current cart. On success
// the cart is cleared (unless the operator already changed it while the
// submit was in flight) and the sale is handed to the ticket controller.
func (o *Orchestrator) Submit(ctx context.Context, paymentType, orderType string) (pos.Sale, error) {
	if strings.TrimSpace(paymentType) == "" {
		return pos.Sale{}, ErrEmptyPaymentType
	}
	if o.register.State() != register.StateOpen {
		return pos.Sale{}, ErrRegisterClosed
	}

	snapshot, version := o.cart.Snapshot()
	if len(snapshot) == 0 {
		return pos.Sale{}, ErrEmptyCart
	}

	lines := pos.NormalizeLines(snapshot)
	total := pos.TotalOf(lines)
	if strings.TrimSpace(orderType) == "" {
		orderType = pos.DefaultOrderType
	}

	orderNumber, err := o.backend.SubmitSale(ctx, o.location(), lines, total, paymentType, orderType)
	if err != nil {
		return pos.Sale{}, err
	}

	sale := pos.Sale{
		OrderNumber: orderNumber,
		Lines:       lines,
		Total:       total,
		PaymentType: paymentType,
		OrderType:   orderType,
		Timestamp:   time.Now(),
	}

	// The submit can resolve after the operator moved on. Clear only if
	// the cart is still the one that was submitted.
	if !o.cart.ClearIfVersion(version) {
		o.log.WithField("order_number", orderNumber).Warn("cart changed during submit, leaving it in place")
	}

	o.publishSaleEvent(ctx, sale)
	if o.tickets != nil {
		o.tickets.AutoPrint(ctx, sale)
	}
	return sale, nil
}

// SaveAsHeldTicket snapshots the cart under a name for later retrieval,
// then clears the cart.
func (o *Orchestrator) SaveAsHeldTicket(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrBlankTicketName
	}
	snapshot, version := o.cart.Snapshot()
	if len(snapshot) == 0 {
		return ErrEmptyCart
	}

	lines := pos.NormalizeLines(snapshot)
	if err := o.backend.SaveHeldTicket(ctx, o.location(), name, lines, pos.TotalOf(lines)); err != nil {
		return err
	}
	o.cart.ClearIfVersion(version)
	return nil
}

type saleEvent struct {
	EventType   string    `json:"event_type"`
	OrderNumber string    `json:"order_number"`
	LocationID  string    `json:"location_id"`
	Total       string    `json:"total"`
	PaymentType string    `json:"payment_type"`
	Timestamp   time.Time `json:"timestamp"`
}

// publishSaleEvent announces the sale on the terminal's Redis channels.
// Best effort: subscribers are dashboards, not the source of truth.
func (o *Orchestrator) publishSaleEvent(ctx context.Context, sale pos.Sale) {
	if o.redis == nil {
		return
	}
	payload, err := json.Marshal(saleEvent{
		EventType:   EventSaleCreated,
		OrderNumber: sale.OrderNumber,
		LocationID:  o.location(),
		Total:       sale.Total.StringFixed(2),
		PaymentType: sale.PaymentType,
		Timestamp:   sale.Timestamp,
	})
	if err != nil {
		return
	}
	channel := fmt.Sprintf("%s%s", eventChannelPrefix, EventSaleCreated)
	if err := o.redis.Publish(ctx, channel, payload).Err(); err != nil {
		o.log.WithError(err).Debug("failed to publish sale event")
		return
	}
	if err := o.redis.Publish(ctx, eventChannelAll, payload).Err(); err != nil {
		o.log.WithError(err).Debug("failed to publish sale event to all channel")
	}
}
