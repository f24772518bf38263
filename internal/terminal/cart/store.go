package cart

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tillpoint/internal/pos"
)

var (
	ErrLineNotFound  = errors.New("cart line not found")
	ErrStockExceeded = errors.New("requested quantity exceeds available stock")
)

// Store owns the in-progress sale's line items. Insertion order is
// display order. Every mutation bumps a version counter so that a slow
// checkout response can detect the cart moved on without it.
type Store struct {
	mu      sync.RWMutex
	lines   []pos.CartLine
	version uint64
}

func NewStore() *Store {
	return &Store{lines: []pos.CartLine{}}
}

// Add merges onto an existing line when the product+variant+add-on
// identity matches, otherwise appends a new line with quantity 1. The
// line's unit price absorbs the add-on prices once, at creation.
func (s *Store) Add(p pos.Product) pos.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate := pos.CartLine{
		ProductID: p.ProductID,
		VariantID: p.VariantID,
		AddOns:    p.AddOns,
	}
	key := candidate.MergeKey()
	for i := range s.lines {
		if s.lines[i].MergeKey() == key {
			s.lines[i].Quantity++
			s.version++
			return s.lines[i]
		}
	}

	unit := p.UnitPrice
	for _, a := range p.AddOns {
		unit = unit.Add(a.Price)
	}
	addOns := p.AddOns
	if addOns == nil {
		addOns = []pos.AddOn{}
	}
	line := pos.CartLine{
		LineID:         uuid.NewString(),
		ProductID:      p.ProductID,
		VariantID:      p.VariantID,
		VariantLabel:   p.VariantLabel,
		Name:           p.Name,
		UnitPrice:      unit,
		Quantity:       1,
		AvailableStock: p.AvailableStock,
		AddOns:         addOns,
	}
	s.lines = append(s.lines, line)
	s.version++
	return line
}

// SetQuantity floors the requested quantity at 1. When the line carries a
// known stock ceiling, requests past it are refused rather than silently
// capped; callers are expected to have disabled the affordance already.
func (s *Store) SetQuantity(lineID string, qty int) (pos.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].LineID != lineID {
			continue
		}
		if qty < 1 {
			qty = 1
		}
		if stock := s.lines[i].AvailableStock; stock != nil && qty > *stock && qty > s.lines[i].Quantity {
			return pos.CartLine{}, ErrStockExceeded
		}
		s.lines[i].Quantity = qty
		s.version++
		return s.lines[i], nil
	}
	return pos.CartLine{}, ErrLineNotFound
}

func (s *Store) SetNote(lineID, text string) (pos.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].LineID == lineID {
			s.lines[i].Note = text
			s.version++
			return s.lines[i], nil
		}
	}
	return pos.CartLine{}, ErrLineNotFound
}

func (s *Store) Remove(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].LineID == lineID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.version++
			return nil
		}
	}
	return ErrLineNotFound
}

// LoadFrom installs a snapshot's lines: replace swaps the whole cart,
// otherwise the lines append after the existing ones.
func (s *Store) LoadFrom(lines []pos.CartLine, replace bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if replace {
		s.lines = append([]pos.CartLine{}, lines...)
	} else {
		s.lines = append(s.lines, lines...)
	}
	s.version++
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = []pos.CartLine{}
	s.version++
}

// ClearIfVersion empties the cart only when it has not been touched since
// the snapshot was taken. Reports whether the clear happened.
func (s *Store) ClearIfVersion(version uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != version {
		return false
	}
	s.lines = []pos.CartLine{}
	s.version++
	return true
}

// Snapshot returns a copy of the current lines plus the cart version.
func (s *Store) Snapshot() ([]pos.CartLine, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pos.CartLine, len(s.lines))
	copy(out, s.lines)
	return out, s.version
}

func (s *Store) Lines() []pos.CartLine {
	lines, _ := s.Snapshot()
	return lines
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

// Total is derived display state: unit price times quantity per line.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
