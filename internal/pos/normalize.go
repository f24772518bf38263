package pos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NormalizeLine maps a cart line into the sale-line shape. The result is
// total: no field is left unset, because the persisted record and the
// printed ticket both depend on stable shapes.
func NormalizeLine(l CartLine) SaleLine {
	qty := l.Quantity
	if qty < 1 {
		qty = 1
	}
	addOns := l.AddOns
	if addOns == nil {
		addOns = []AddOn{}
	}
	return SaleLine{
		ProductID:   l.ProductID,
		Name:        l.Name,
		UnitPrice:   l.UnitPrice,
		Quantity:    qty,
		Note:        l.Note,
		VariantID:   l.VariantID,
		VariantName: l.VariantLabel,
		AddOns:      addOns,
	}
}

func NormalizeLines(lines []CartLine) []SaleLine {
	out := make([]SaleLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, NormalizeLine(l))
	}
	return out
}

// CartLineFromSale rebuilds a cart line from a stored sale line, assigning
// a fresh line identity. Missing price coerces to 0, missing quantity to 1.
func CartLineFromSale(s SaleLine) CartLine {
	qty := s.Quantity
	if qty < 1 {
		qty = 1
	}
	addOns := s.AddOns
	if addOns == nil {
		addOns = []AddOn{}
	}
	return CartLine{
		LineID:       uuid.NewString(),
		ProductID:    s.ProductID,
		VariantID:    s.VariantID,
		VariantLabel: s.VariantName,
		Name:         s.Name,
		UnitPrice:    s.UnitPrice,
		Quantity:     qty,
		Note:         s.Note,
		AddOns:       addOns,
	}
}

func CartLinesFromSale(lines []SaleLine) []CartLine {
	out := make([]CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartLineFromSale(l))
	}
	return out
}

// TotalOf sums unit price by quantity across normalized lines.
func TotalOf(lines []SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
