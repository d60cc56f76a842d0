// Package billservice is the recognition and bill generation service the
// billing screen talks to.
package billservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/ledger"
	"github.com/zombor/billsmart/internal/scanning"
	"github.com/zombor/billsmart/internal/storage"
)

// ErrNoItems is returned when a bill is requested for an empty list
var ErrNoItems = errors.New("no items provided")

// DemoItems are returned by ProcessImage when nothing was detected and
// demo mode is on
var DemoItems = []ledger.Item{
	{Name: "Apple", Count: 3, Price: decimal.NewFromInt(50)},
	{Name: "Banana", Count: 2, Price: decimal.NewFromInt(20)},
	{Name: "Milk", Count: 1, Price: decimal.NewFromInt(60)},
}

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Options configures a Service
type Options struct {
	Shop    Shop
	Catalog *Catalog
	// DemoItems makes ProcessImage answer with DemoItems when nothing is detected
	DemoItems bool
}

// Service handles recognition and bill operations
type Service struct {
	db          DB
	scanner     scanning.Scanner
	storage     storage.Storage
	opts        Options
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, scanner scanning.Scanner, store storage.Storage, opts Options) *Service {
	return NewServiceWithDeps(db, scanner, store, opts, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, store storage.Storage, opts Options, idGen IDGenerator, timeSrc TimeSource) *Service {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.Shop.Name == "" {
		opts.Shop = DefaultShop
	}
	return &Service{
		db:          db,
		scanner:     scanner,
		storage:     store,
		opts:        opts,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ProcessImage detects the products in an image and prices them from the
// catalog. Unknown products are priced at zero so the operator can fix them.
func (s *Service) ProcessImage(ctx context.Context, data []byte, contentType string) ([]ledger.Item, error) {
	detections, err := s.scanner.ScanItems(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to scan image", "content_type", contentType, "size", len(data), "error", err)
		return nil, fmt.Errorf("scanning image: %w", err)
	}

	items := make([]ledger.Item, 0, len(detections))
	for _, d := range detections {
		price, ok := s.opts.Catalog.Price(d.Name)
		if !ok {
			slog.Warn("Product not in catalog", "name", d.Name)
		}
		items = append(items, ledger.Item{Name: d.Name, Count: d.Count, Price: price})
	}

	if len(items) == 0 && s.opts.DemoItems {
		slog.Info("No items detected, returning demo items")
		items = append(items, DemoItems...)
	}

	slog.Info("Image processed", "items", len(items))
	return items, nil
}

// GenerateBill renders, stores and records a bill for items
func (s *Service) GenerateBill(items []ledger.Item) (*Bill, []byte, error) {
	if len(items) == 0 {
		return nil, nil, ErrNoItems
	}

	data, err := RenderBill(s.opts.Shop, items)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering bill: %w", err)
	}

	id := s.idGenerator.Generate()
	filename := id + ".pdf"
	if _, err := s.storage.Save(filename, data); err != nil {
		return nil, nil, fmt.Errorf("saving bill: %w", err)
	}

	bill := &Bill{
		ID:        id,
		Filename:  filename,
		Items:     items,
		Total:     ledger.Sum(items).StringFixed(2),
		Size:      len(data),
		CreatedAt: s.timeSource.Now(),
	}
	if err := s.db.SaveBill(bill); err != nil {
		// Clean up the stored file
		s.storage.Delete(filename)
		return nil, nil, fmt.Errorf("saving bill record: %w", err)
	}

	slog.Info("Bill generated", "id", id, "items", len(items), "total", bill.Total)
	return bill, data, nil
}

// GetBillFile returns the stored PDF for a bill
func (s *Service) GetBillFile(id string) ([]byte, error) {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return nil, err
	}
	data, err := s.storage.Get(bill.Filename)
	if err != nil {
		return nil, fmt.Errorf("reading bill file: %w", err)
	}
	return data, nil
}

// ListBills returns all bill records, newest first
func (s *Service) ListBills() ([]*Bill, error) {
	return s.db.ListBills()
}
