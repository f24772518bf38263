package watch

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrAlertNotFound = errors.New("alert not found")

// Alert is a dismissible operator notification. Target carries the
// navigation context for the "go to" action, e.g. the screen and record
// the alert refers to.
type Alert struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	EventID   string    `json:"event_id"`
	Summary   string    `json:"summary"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

// Center holds the alerts currently shown to the operator. Dismissing is
// explicit; alerts never expire on their own.
type Center struct {
	mu     sync.RWMutex
	alerts []Alert
}

func NewCenter() *Center {
	return &Center{alerts: []Alert{}}
}

func (c *Center) Publish(kind, eventID, summary, target string) Alert {
	alert := Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		EventID:   eventID,
		Summary:   summary,
		Target:    target,
		CreatedAt: time.Now(),
	}
	c.mu.Lock()
	c.alerts = append(c.alerts, alert)
	c.mu.Unlock()
	return alert
}

func (c *Center) Active() []Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

func (c *Center) Dismiss(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.alerts {
		if c.alerts[i].ID == id {
			c.alerts = append(c.alerts[:i], c.alerts[i+1:]...)
			return nil
		}
	}
	return ErrAlertNotFound
}

// Clear drops all alerts, e.g. when the active location changes.
func (c *Center) Clear() {
	c.mu.Lock()
	c.alerts = []Alert{}
	c.mu.Unlock()
}
