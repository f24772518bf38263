package register

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/pos"
)

var (
	ErrNoLocation          = errors.New("no active location selected")
	ErrAlreadyOpen         = errors.New("register session already open")
	ErrNotOpen             = errors.New("register session is not open")
	ErrInvalidOpeningFloat = errors.New("opening float must be a positive amount")
)

type State int

const (
	StateClosed State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// Backend is the slice of the collaborator API the register cares about.
type Backend interface {
	OpenRegister(ctx context.Context, locationID string, openingFloat decimal.Decimal) error
	CloseRegister(ctx context.Context, locationID, operatorName string) (pos.RegisterSession, error)
	ListRegisterHistory(ctx context.Context, locationID string) ([]pos.RegisterSession, error)
}

// Manager tracks whether a till session is open for the active location
// and gates checkout on it. The cached state is advisory: the backend is
// the source of truth and may still reject an open or close call.
type Manager struct {
	mu       sync.RWMutex
	backend  Backend
	location string
	state    State
	current  *pos.RegisterSession
}

func NewManager(backend Backend) *Manager {
	return &Manager{backend: backend}
}

// SetLocation switches the active location and re-derives the session
// state from the backend's history: open iff a record exists with no
// closing timestamp.
func (m *Manager) SetLocation(ctx context.Context, locationID string) error {
	m.mu.Lock()
	m.location = locationID
	m.state = StateClosed
	m.current = nil
	m.mu.Unlock()
	if locationID == "" {
		return nil
	}
	return m.Refresh(ctx)
}

func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	loc := m.location
	m.mu.RUnlock()
	if loc == "" {
		return ErrNoLocation
	}

	history, err := m.backend.ListRegisterHistory(ctx, loc)
	if err != nil {
		return fmt.Errorf("loading register history: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
	m.current = nil
	for i := range history {
		if history[i].IsOpen() {
			session := history[i]
			m.state = StateOpen
			m.current = &session
			break
		}
	}
	return nil
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentSession returns the cached open session, if any.
func (m *Manager) CurrentSession() (pos.RegisterSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return pos.RegisterSession{}, false
	}
	return *m.current, true
}

// Open starts a till session. The opening float is validated locally
// before any network call; a backend conflict (concurrent open from
// another terminal) surfaces as ErrAlreadyOpen.
func (m *Manager) Open(ctx context.Context, openingFloat decimal.Decimal) error {
	m.mu.RLock()
	loc, state := m.location, m.state
	m.mu.RUnlock()

	if loc == "" {
		return ErrNoLocation
	}
	if !openingFloat.IsPositive() {
		return ErrInvalidOpeningFloat
	}
	if state == StateOpen {
		return ErrAlreadyOpen
	}

	if err := m.backend.OpenRegister(ctx, loc, openingFloat); err != nil {
		return err
	}

	now := time.Now()
	m.mu.Lock()
	m.state = StateOpen
	m.current = &pos.RegisterSession{
		OpenedAt:            now,
		OpeningFloat:        openingFloat,
		TotalSold:           decimal.Zero,
		TotalsByPaymentType: map[string]decimal.Decimal{},
	}
	m.mu.Unlock()
	return nil
}

// Close ends the open session and returns the backend's closing summary
// (totals plus per-payment-type breakdown).
func (m *Manager) Close(ctx context.Context, operatorName string) (pos.RegisterSession, error) {
	m.mu.RLock()
	loc, state := m.location, m.state
	m.mu.RUnlock()

	if loc == "" {
		return pos.RegisterSession{}, ErrNoLocation
	}
	if state != StateOpen {
		return pos.RegisterSession{}, ErrNotOpen
	}

	summary, err := m.backend.CloseRegister(ctx, loc, operatorName)
	if err != nil {
		return pos.RegisterSession{}, err
	}

	m.mu.Lock()
	m.state = StateClosed
	m.current = nil
	m.mu.Unlock()
	return summary, nil
}

func (m *Manager) History(ctx context.Context) ([]pos.RegisterSession, error) {
	m.mu.RLock()
	loc := m.location
	m.mu.RUnlock()
	if loc == "" {
		return nil, ErrNoLocation
	}
	return m.backend.ListRegisterHistory(ctx, loc)
}
