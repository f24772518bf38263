package pos

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultReceiptTitle    = "Ticket de Venta"
	DefaultAutoPrintCopies = 1
	DefaultOrderType       = "Local"
)

// Web order states that no longer need operator attention.
const (
	OrderStatusDelivered = "entregado"
	OrderStatusRejected  = "rechazado"
	OrderStatusCancelled = "cancelado"
)

type AddOn struct {
	AddOnID string          `json:"addon_id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
}

// CartLine is one entry of the in-progress sale. LineID identifies the
// line for the lifetime of the terminal session; the same product with a
// different variant or add-on set gets its own line.
type CartLine struct {
	LineID         string          `json:"line_id"`
	ProductID      string          `json:"product_id"`
	VariantID      string          `json:"variant_id,omitempty"`
	VariantLabel   string          `json:"variant_label,omitempty"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	Note           string          `json:"note"`
	AvailableStock *int            `json:"available_stock,omitempty"`
	AddOns         []AddOn         `json:"addons"`
}

// MergeKey is the product+variant+add-on identity used to coalesce
// repeated adds into a single line.
func (l CartLine) MergeKey() string {
	ids := make([]string, 0, len(l.AddOns))
	for _, a := range l.AddOns {
		ids = append(ids, a.AddOnID)
	}
	sort.Strings(ids)
	return l.ProductID + "|" + l.VariantID + "|" + strings.Join(ids, ",")
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Product is the catalog shape handed to the cart when the operator taps
// an item. Add-on prices fold into the line's unit price at add time and
// are never recomputed from live catalog state.
type Product struct {
	ProductID      string          `json:"product_id"`
	VariantID      string          `json:"variant_id,omitempty"`
	VariantLabel   string          `json:"variant_label,omitempty"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableStock *int            `json:"available_stock,omitempty"`
	AddOns         []AddOn         `json:"addons,omitempty"`
}

// SaleLine is the fully-normalized line shape shared by the persisted
// sale and the printed ticket. Every field is always present.
type SaleLine struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Note        string          `json:"note"`
	VariantID   string          `json:"variant_id"`
	VariantName string          `json:"variant_name"`
	AddOns      []AddOn         `json:"addons"`
}

// Sale is immutable once returned by the backend; OrderNumber is assigned
// at persistence time.
type Sale struct {
	OrderNumber string          `json:"order_number"`
	Lines       []SaleLine      `json:"lines"`
	Total       decimal.Decimal `json:"total"`
	PaymentType string          `json:"payment_type"`
	OrderType   string          `json:"order_type"`
	Timestamp   time.Time       `json:"timestamp"`
}

type RegisterSession struct {
	ID                  string                     `json:"id"`
	OpenedAt            time.Time                  `json:"opened_at"`
	ClosedAt            *time.Time                 `json:"closed_at,omitempty"`
	OpeningFloat        decimal.Decimal            `json:"opening_float"`
	TotalSold           decimal.Decimal            `json:"total_sold"`
	TotalsByPaymentType map[string]decimal.Decimal `json:"totals_by_payment_type"`
	OperatorName        string                     `json:"operator_name"`
}

func (s RegisterSession) IsOpen() bool {
	return s.ClosedAt == nil
}

// HeldTicket is a named cart snapshot saved for later ("open tab").
type HeldTicket struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Lines []SaleLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// PendingEvent is an externally-created record (web order, table charge)
// this terminal has not yet surfaced to the operator.
type PendingEvent struct {
	ID           string    `json:"id"`
	Summary      string    `json:"summary"`
	Status       string    `json:"status"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type WebOrder struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Customer  string          `json:"customer"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

type TableCharge struct {
	ID        string          `json:"id"`
	TableName string          `json:"table_name"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

type ReceiptConfig struct {
	Title           string `json:"title"`
	FooterText      string `json:"footer_text,omitempty"`
	LogoURL         string `json:"logo_url,omitempty"`
	AutoPrintCopies *int   `json:"auto_print_copies,omitempty"`
}

// WithDefaults fills absent receipt fields with terminal defaults. A nil
// copy count means "not configured" and falls back to 1; an explicit 0
// stays 0 (auto-print disabled).
func (c ReceiptConfig) WithDefaults() ReceiptConfig {
	if c.Title == "" {
		c.Title = DefaultReceiptTitle
	}
	return c
}

func (c ReceiptConfig) Copies() int {
	if c.AutoPrintCopies == nil {
		return DefaultAutoPrintCopies
	}
	return *c.AutoPrintCopies
}
