package watch

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// BackendAPI is everything the supervisor's watchers poll.
type BackendAPI interface {
	OrdersAPI
	ChargesAPI
}

// Supervisor owns the lifecycle of both watchers. Changing the active
// location (or stopping the supervisor) cancels the running watchers
// deterministically so no orphaned timer fires into a stale context.
type Supervisor struct {
	backend BackendAPI
	rdb     *redis.Client
	alerts  *Center
	chime   Chime
	log     *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSupervisor(backend BackendAPI, rdb *redis.Client, alerts *Center, chime Chime, log *logrus.Logger) *Supervisor {
	return &Supervisor{
		backend: backend,
		rdb:     rdb,
		alerts:  alerts,
		chime:   chime,
		log:     log,
	}
}

// SetLocation restarts the watchers against a new location. An empty
// location just stops them (no qualifying context, no polling).
func (s *Supervisor) SetLocation(locationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.alerts.Clear()
	if locationID == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	watchers := []*Watcher{
		NewWatcher(WebOrderSource(s.backend, locationID), s.seenSet(KindWebOrders, locationID), s.alerts, s.chime, s.log),
		NewWatcher(TableChargeSource(s.backend, locationID), s.seenSet(KindTableCharges, locationID), s.alerts, s.chime, s.log),
	}
	for _, w := range watchers {
		s.wg.Add(1)
		go func(w *Watcher) {
			defer s.wg.Done()
			w.Run(ctx)
		}(w)
	}
	s.log.WithField("location", locationID).Info("notification watchers started")
}

// Stop cancels the watchers and waits for them to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}

func (s *Supervisor) seenSet(kind, locationID string) SeenSet {
	if s.rdb == nil {
		return NewMemorySeenSet()
	}
	return NewRedisSeenSet(s.rdb, kind, locationID)
}
