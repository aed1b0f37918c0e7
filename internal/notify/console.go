package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsoleSink prints alerts, for dry runs and when no remote sink is
// configured.
type ConsoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (c *ConsoleSink) Name() string { return "console" }

func (c *ConsoleSink) Send(ctx context.Context, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.w, message); err != nil {
		return &DeliveryError{Sink: c.Name(), Err: err}
	}
	return nil
}
