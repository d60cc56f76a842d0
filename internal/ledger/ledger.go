// Package ledger holds the editable item list and its derived total.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrIndexOutOfRange = errors.New("item index out of range")
	ErrUnknownField    = errors.New("unknown item field")
	ErrNegativeValue   = errors.New("negative values are not allowed")
	ErrNotWholeNumber  = errors.New("count must be a whole number")
	ErrCountTooLarge   = errors.New("count is out of range")
)

// TotalListener is told about every recomputed total
type TotalListener interface {
	Publish(total decimal.Decimal)
}

// Ledger is the ordered item list plus its total. The total is recomputed
// before every mutating call returns.
type Ledger struct {
	mu       sync.Mutex
	items    []Item
	total    decimal.Decimal
	policy   ValidationPolicy
	listener TotalListener
}

// New creates an empty ledger; listener may be nil
func New(policy ValidationPolicy, listener TotalListener) *Ledger {
	return &Ledger{
		items:    make([]Item, 0),
		total:    decimal.Zero,
		policy:   policy,
		listener: listener,
	}
}

// ReplaceAll swaps the whole sequence, e.g. for a new recognition result
func (l *Ledger) ReplaceAll(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make([]Item, len(items))
	copy(l.items, items)
	l.recompute()
}

// Append adds a manually entered row at the end
func (l *Ledger) Append(item Item) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	count, err := l.policy.apply(decimal.NewFromInt(int64(item.Count)))
	if err != nil {
		return err
	}
	price, err := l.policy.apply(item.Price)
	if err != nil {
		return err
	}
	item.Count, err = countFrom(count)
	if err != nil {
		return err
	}
	item.Price = price

	l.items = append(l.items, item)
	l.recompute()
	return nil
}

// Edit sets count or price of the row at index. A rejected edit leaves the
// sequence untouched.
func (l *Ledger) Edit(index int, field Field, value decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.items) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(l.items))
	}

	value, err := l.policy.apply(value)
	if err != nil {
		return err
	}

	switch field {
	case FieldCount:
		count, err := countFrom(value)
		if err != nil {
			return err
		}
		l.items[index].Count = count
	case FieldPrice:
		l.items[index].Price = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	l.recompute()
	return nil
}

// Clear empties the ledger and zeroes the total
func (l *Ledger) Clear() {
	l.ReplaceAll(nil)
}

// Items returns a copy of the current sequence
func (l *Ledger) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Total returns the sum of all line totals
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Len returns the number of rows
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// recompute must be called with mu held
func (l *Ledger) recompute() {
	l.total = Sum(l.items)
	if l.listener != nil {
		l.listener.Publish(l.total)
	}
}
