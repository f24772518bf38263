package ticket

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// Printer delivers a rendered document to physical paper. Printing never
// mutates terminal state, so printing the same document twice is safe.
type Printer interface {
	Print(ctx context.Context, document string) error
}

// RawPrinter writes documents to a network receipt printer speaking the
// raw port-9100 protocol. A cut command follows each document.
type RawPrinter struct {
	addr        string
	dialTimeout time.Duration
}

const cutSequence = "\x1dV\x00"

func NewRawPrinter(addr string) *RawPrinter {
	return &RawPrinter{addr: addr, dialTimeout: 5 * time.Second}
}

func (p *RawPrinter) Print(ctx context.Context, document string) error {
	dialer := net.Dialer{Timeout: p.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return fmt.Errorf("printer unreachable at %s: %w", p.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write([]byte(document + "\n" + cutSequence)); err != nil {
		return fmt.Errorf("writing to printer: %w", err)
	}
	return nil
}

// LogPrinter dumps documents to the terminal log. Used when no physical
// printer is configured.
type LogPrinter struct {
	log *logrus.Logger
}

func NewLogPrinter(log *logrus.Logger) *LogPrinter {
	return &LogPrinter{log: log}
}

func (p *LogPrinter) Print(_ context.Context, document string) error {
	p.log.WithField("bytes", len(document)).Info("printing ticket\n" + document)
	return nil
}
