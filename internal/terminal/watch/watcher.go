package watch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tillpoint/internal/pos"
)

// DefaultPollInterval is how often a watcher asks the backend for
// pending work.
const DefaultPollInterval = 15 * time.Second

// Source parameterizes a watcher: what to fetch, which records still
// need attention, and how to phrase the alert.
type Source struct {
	Kind   string
	Fetch  func(ctx context.Context) ([]pos.PendingEvent, error)
	IsOpen func(pos.PendingEvent) bool
	Target func(pos.PendingEvent) string
}

// Watcher runs the generic poll-compare-alert loop: check immediately on
// start, then on a fixed interval until the context is cancelled. Each
// tick surfaces at most one unseen open record, the most recent by
// timestamp; older unseen ones stay eligible for a later tick.
type Watcher struct {
	source   Source
	seen     SeenSet
	alerts   *Center
	chime    Chime
	interval time.Duration
	log      *logrus.Logger
}

func NewWatcher(source Source, seen SeenSet, alerts *Center, chime Chime, log *logrus.Logger) *Watcher {
	return &Watcher{
		source:   source,
		seen:     seen,
		alerts:   alerts,
		chime:    chime,
		interval: DefaultPollInterval,
		log:      log,
	}
}

// Run blocks until ctx is cancelled. A failing tick is swallowed; the
// next scheduled tick is the retry mechanism.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check performs one poll-compare-alert pass.
func (w *Watcher) Check(ctx context.Context) {
	events, err := w.source.Fetch(ctx)
	if err != nil {
		w.log.WithError(err).WithField("watcher", w.source.Kind).Debug("poll tick failed")
		return
	}

	var newest *pos.PendingEvent
	for i := range events {
		e := events[i]
		if !w.source.IsOpen(e) {
			continue
		}
		seen, err := w.seen.Contains(ctx, e.ID)
		if err != nil || seen {
			continue
		}
		if newest == nil || e.DiscoveredAt.After(newest.DiscoveredAt) {
			newest = &e
		}
	}
	if newest == nil {
		return
	}

	// Mark seen before alerting so an overlapping tick cannot re-alert
	// on the same record.
	if err := w.seen.MarkSeen(ctx, newest.ID); err != nil {
		w.log.WithError(err).WithField("watcher", w.source.Kind).Debug("failed to persist seen id")
		return
	}

	w.chime.Play()
	w.alerts.Publish(w.source.Kind, newest.ID, newest.Summary, w.source.Target(*newest))
	w.log.WithFields(logrus.Fields{
		"watcher": w.source.Kind,
		"event":   newest.ID,
	}).Info("new pending work surfaced")
}
