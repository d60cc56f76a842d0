// Package workflow is the screen controller: it owns the capture session,
// the item ledger and the bill reference, and sequences the calls to the
// recognition and document services.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/billing"
	"github.com/zombor/billsmart/internal/capture"
	"github.com/zombor/billsmart/internal/device"
	"github.com/zombor/billsmart/internal/ledger"
	"github.com/zombor/billsmart/internal/recognition"
)

var (
	ErrSubmitInProgress   = errors.New("a submission is already in progress")
	ErrGenerateInProgress = errors.New("bill generation is already in progress")
	// ErrSuperseded is returned when a retake happened while a submission was
	// outstanding; its result is discarded
	ErrSuperseded = errors.New("session was retaken while the request was outstanding")
)

// Recognizer turns a JPEG image into items
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) ([]ledger.Item, error)
}

// BillGenerator turns items into a saved bill
type BillGenerator interface {
	Generate(ctx context.Context, items []ledger.Item) (*billing.Bill, error)
	DownloadURL(billID string) string
}

// Session is the single state container for the screen. All mutation goes
// through it; network calls and frame reads run without holding its lock.
type Session struct {
	device     *device.Device
	capture    *capture.Controller
	ledger     *ledger.Ledger
	recognizer Recognizer
	bills      BillGenerator

	mu         sync.Mutex
	epoch      uint64
	bill       *billing.Bill
	submitting bool
	generating bool
}

// NewSession wires the workflow. dev is nil when no capture device resolved.
func NewSession(dev *device.Device, ctrl *capture.Controller, items *ledger.Ledger, recognizer Recognizer, bills BillGenerator) *Session {
	return &Session{
		device:     dev,
		capture:    ctrl,
		ledger:     items,
		recognizer: recognizer,
		bills:      bills,
	}
}

// Capture takes a still frame. Without a device or on a failed read nothing changes.
func (s *Session) Capture(ctx context.Context) (*capture.Image, error) {
	img, err := s.capture.Capture(ctx)
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrNoDevice), errors.Is(err, capture.ErrImageHeld):
			slog.Debug("Capture ignored", "reason", err)
		default:
			slog.Warn("Capture failed", "error", err)
		}
		return nil, err
	}
	slog.Info("Image captured", "bytes", len(img.Data))
	return img, nil
}

// Retake is the single reset point: it drops the image, empties the ledger
// and clears the bill reference. Outstanding submissions are invalidated.
func (s *Session) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.capture.Retake()
	s.ledger.Clear()
	s.bill = nil
}

// Submit sends the held image for recognition and replaces the ledger with
// the result. On failure the ledger is untouched and the same image may be
// submitted again.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInProgress
	}
	img := s.capture.Image()
	if img == nil {
		s.mu.Unlock()
		return recognition.ErrNoImage
	}
	s.submitting = true
	epoch := s.epoch
	s.mu.Unlock()

	items, err := s.recognizer.Recognize(ctx, img.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if err != nil {
		slog.Error("Error sending image to recognition service", "error", err)
		return fmt.Errorf("submitting image: %w", err)
	}
	if epoch != s.epoch {
		slog.Warn("Discarding recognition result for a retaken image", "items", len(items))
		return ErrSuperseded
	}

	s.ledger.ReplaceAll(items)
	s.capture.MarkSubmitted()
	slog.Info("Image recognized", "items", len(items), "total", s.ledger.Total().String())
	return nil
}

// Edit changes the count or price of one row
func (s *Session) Edit(index int, field ledger.Field, value decimal.Decimal) error {
	if err := s.ledger.Edit(index, field, value); err != nil {
		return fmt.Errorf("editing item %d: %w", index, err)
	}
	return nil
}

// AddItem appends a manually entered row
func (s *Session) AddItem(item ledger.Item) error {
	if err := s.ledger.Append(item); err != nil {
		return fmt.Errorf("adding item: %w", err)
	}
	return nil
}

// GenerateBill sends the current ledger snapshot to the document service and
// saves the result. A failure leaves the bill reference as it was.
func (s *Session) GenerateBill(ctx context.Context) (*billing.Bill, error) {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return nil, ErrGenerateInProgress
	}
	s.generating = true
	epoch := s.epoch
	items := s.ledger.Items()
	s.mu.Unlock()

	bill, err := s.bills.Generate(ctx, items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generating = false

	if err != nil {
		slog.Error("Error generating bill", "error", err)
		return nil, fmt.Errorf("generating bill: %w", err)
	}

	slog.Info("Bill saved", "path", bill.Path, "bytes", bill.Size, "bill_id", bill.ID)
	if epoch != s.epoch {
		// the file is already saved; only the reference belongs to the old session
		slog.Warn("Not recording bill reference for a retaken session", "bill_id", bill.ID)
		return bill, nil
	}
	s.bill = bill
	return bill, nil
}

// Total is the ledger's current total
func (s *Session) Total() decimal.Decimal {
	return s.ledger.Total()
}

// Items is a copy of the ledger's rows
func (s *Session) Items() []ledger.Item {
	return s.ledger.Items()
}

// Bill returns the last bill generated for this session, or nil
func (s *Session) Bill() *billing.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bill
}

// Image returns the held image, or nil
func (s *Session) Image() *capture.Image {
	return s.capture.Image()
}
