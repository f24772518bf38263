package ticket

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tillpoint/internal/pos"
)

const (
	// MaxAutoPrintCopies bounds the auto-print loop regardless of what
	// the receipt config claims.
	MaxAutoPrintCopies = 5

	defaultSettleDelay  = 400 * time.Millisecond
	defaultCopyInterval = 2 * time.Second
)

// ConfigSource yields the receipt configuration, read once per render.
type ConfigSource interface {
	GetReceiptConfig(ctx context.Context, locationID string) (pos.ReceiptConfig, error)
}

// Controller materializes tickets and drives the auto-print sequence for
// just-completed sales. The sequence runs at most once per sale even if
// AutoPrint is invoked again for the same order number.
type Controller struct {
	printer      Printer
	config       ConfigSource
	location     func() string
	log          *logrus.Logger
	settleDelay  time.Duration
	copyInterval time.Duration

	mu      sync.Mutex
	printed map[string]struct{}

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewController(printer Printer, config ConfigSource, location func() string, log *logrus.Logger) *Controller {
	base, cancel := context.WithCancel(context.Background())
	return &Controller{
		printer:      printer,
		config:       config,
		location:     location,
		log:          log,
		settleDelay:  defaultSettleDelay,
		copyInterval: defaultCopyInterval,
		printed:      map[string]struct{}{},
		base:         base,
		cancel:       cancel,
	}
}

// Close cancels any in-flight auto-print sequence and waits for it.
func (c *Controller) Close() {
	c.cancel()
	c.wg.Wait()
}

// Wait blocks until running auto-print sequences finish.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// ClampCopies bounds a configured copy count to the printable range.
func ClampCopies(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxAutoPrintCopies {
		return MaxAutoPrintCopies
	}
	return n
}

// AutoPrint renders the sale and schedules the configured number of
// copies: none for 0, one after a short settle delay for 1, and for more
// than one the rest follow at a fixed interval. The request context is
// deliberately not used for the timers; teardown cancels them via Close.
func (c *Controller) AutoPrint(ctx context.Context, sale pos.Sale) {
	c.mu.Lock()
	if _, done := c.printed[sale.OrderNumber]; done {
		c.mu.Unlock()
		return
	}
	c.printed[sale.OrderNumber] = struct{}{}
	c.mu.Unlock()

	cfg := c.fetchConfig(ctx)
	copies := ClampCopies(cfg.Copies())
	if copies == 0 {
		return
	}
	document := RenderSale(cfg, sale)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for i := 0; i < copies; i++ {
			delay := c.copyInterval
			if i == 0 {
				delay = c.settleDelay
			}
			select {
			case <-c.base.Done():
				return
			case <-time.After(delay):
			}
			if err := c.printer.Print(c.base, document); err != nil {
				c.log.WithError(err).WithField("order_number", sale.OrderNumber).Warn("auto-print copy failed")
			}
		}
	}()
}

// RenderSaleDocument materializes the printable document for a sale
// using the current receipt config.
func (c *Controller) RenderSaleDocument(ctx context.Context, sale pos.Sale) string {
	return RenderSale(c.fetchConfig(ctx), sale)
}

// PrintSale is the manual affordance: always available, idempotent, and
// independent of whatever the auto-print sequence did.
func (c *Controller) PrintSale(ctx context.Context, sale pos.Sale) error {
	cfg := c.fetchConfig(ctx)
	return c.printer.Print(ctx, RenderSale(cfg, sale))
}

// PrintRegisterSummary prints a till-closing report.
func (c *Controller) PrintRegisterSummary(ctx context.Context, summary pos.RegisterSession) error {
	cfg := c.fetchConfig(ctx)
	return c.printer.Print(ctx, RenderRegisterSummary(cfg, summary))
}

func (c *Controller) fetchConfig(ctx context.Context) pos.ReceiptConfig {
	cfg, err := c.config.GetReceiptConfig(ctx, c.location())
	if err != nil {
		c.log.WithError(err).Debug("receipt config unavailable, using defaults")
		return pos.ReceiptConfig{}.WithDefaults()
	}
	return cfg.WithDefaults()
}
