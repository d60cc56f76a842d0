// Package announce speaks the running total. It is best effort: a newer
// total supersedes one that has not been spoken yet, and publishing never
// blocks the caller.
package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
)

// CurrencyUnit is the single fixed currency
const CurrencyUnit = "rupees"

// Message is the utterance for a total
func Message(total decimal.Decimal) string {
	return fmt.Sprintf("Total amount is %s %s", total.String(), CurrencyUnit)
}

// Announcer is a single-slot publisher of the latest total
type Announcer struct {
	speaker Speaker

	mu      sync.Mutex
	latest  decimal.Decimal
	pending bool
	wake    chan struct{}
}

// New creates an Announcer. The last known total starts at zero, so an
// unchanged zero is not announced.
func New(speaker Speaker) *Announcer {
	return &Announcer{
		speaker: speaker,
		latest:  decimal.Zero,
		wake:    make(chan struct{}, 1),
	}
}

// Publish records total as the next thing to say if it differs from the last
// published value
func (a *Announcer) Publish(total decimal.Decimal) {
	a.mu.Lock()
	if a.latest.Equal(total) {
		a.mu.Unlock()
		return
	}
	a.latest = total
	a.pending = true
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run speaks published totals until ctx is cancelled
func (a *Announcer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.wake:
		}

		a.mu.Lock()
		if !a.pending {
			a.mu.Unlock()
			continue
		}
		total := a.latest
		a.pending = false
		a.mu.Unlock()

		if err := a.speaker.Speak(ctx, Message(total)); err != nil {
			slog.Warn("Failed to announce total", "total", total.String(), "error", err)
		}
	}
}
