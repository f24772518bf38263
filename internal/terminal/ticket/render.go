package ticket

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"tillpoint/internal/pos"
)

const receiptWidth = 42

// RenderSale lays out a sale as a printable plain-text receipt. Rendering
// is deterministic from the record: same sale and config, same bytes.
func RenderSale(cfg pos.ReceiptConfig, sale pos.Sale) string {
	cfg = cfg.WithDefaults()

	var b strings.Builder
	writeHeader(&b, cfg)
	writeKV(&b, "Orden", sale.OrderNumber)
	writeKV(&b, "Fecha", sale.Timestamp.Format("02/01/2006 15:04"))
	divider(&b)

	for _, l := range sale.Lines {
		writeLine(&b, l)
	}

	divider(&b)
	writeAmount(&b, "TOTAL", sale.Total.StringFixed(2))
	writeKV(&b, "Pago", sale.PaymentType)
	writeKV(&b, "Tipo", sale.OrderType)
	writeFooter(&b, cfg)
	return b.String()
}

// RenderRegisterSummary lays out a till-closing report: opening float,
// totals and the per-payment-type breakdown.
func RenderRegisterSummary(cfg pos.ReceiptConfig, s pos.RegisterSession) string {
	cfg = cfg.WithDefaults()
	cfg.Title = "Cierre de Caja"

	var b strings.Builder
	writeHeader(&b, cfg)
	if s.ID != "" {
		writeKV(&b, "Reporte", s.ID)
	}
	writeKV(&b, "Apertura", s.OpenedAt.Format("02/01/2006 15:04"))
	if s.ClosedAt != nil {
		writeKV(&b, "Cierre", s.ClosedAt.Format("02/01/2006 15:04"))
	}
	writeKV(&b, "Operador", s.OperatorName)
	divider(&b)
	writeAmount(&b, "Fondo inicial", s.OpeningFloat.StringFixed(2))
	writeAmount(&b, "Total vendido", s.TotalSold.StringFixed(2))

	if len(s.TotalsByPaymentType) > 0 {
		divider(&b)
		types := make([]string, 0, len(s.TotalsByPaymentType))
		for t := range s.TotalsByPaymentType {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			writeAmount(&b, t, s.TotalsByPaymentType[t].StringFixed(2))
		}
	}
	writeFooter(&b, cfg)
	return b.String()
}

func writeHeader(b *strings.Builder, cfg pos.ReceiptConfig) {
	if cfg.LogoURL != "" {
		b.WriteString(center("[logo]") + "\n")
	}
	b.WriteString(center(cfg.Title) + "\n")
	divider(b)
}

func writeFooter(b *strings.Builder, cfg pos.ReceiptConfig) {
	if cfg.FooterText != "" {
		divider(b)
		b.WriteString(center(cfg.FooterText) + "\n")
	}
}

func writeLine(b *strings.Builder, l pos.SaleLine) {
	lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	label := fmt.Sprintf("%dx %s", l.Quantity, l.Name)
	writeAmount(b, label, lineTotal.StringFixed(2))
	if l.VariantName != "" {
		b.WriteString("   " + l.VariantName + "\n")
	}
	for _, a := range l.AddOns {
		writeAmount(b, "   + "+a.Name, a.Price.StringFixed(2))
	}
	if l.Note != "" {
		b.WriteString("   * " + l.Note + "\n")
	}
}

func writeKV(b *strings.Builder, key, value string) {
	b.WriteString(fmt.Sprintf("%s: %s\n", key, value))
}

// writeAmount right-aligns the amount against the receipt width.
func writeAmount(b *strings.Builder, label, amount string) {
	gap := receiptWidth - len(label) - len(amount)
	if gap < 1 {
		gap = 1
	}
	b.WriteString(label + strings.Repeat(" ", gap) + amount + "\n")
}

func divider(b *strings.Builder) {
	b.WriteString(strings.Repeat("-", receiptWidth) + "\n")
}

func center(s string) string {
	if len(s) >= receiptWidth {
		return s
	}
	pad := (receiptWidth - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
