package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one recognized or manually added product row
type Item struct {
	Name  string          `json:"name"`
	Count int             `json:"count"`
	Price decimal.Decimal `json:"price"` // unit price in the fixed currency unit
}

// LineTotal is count * price
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Count)))
}

// MarshalJSON writes price as a JSON number, which is what both services expect
func (i Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name  string      `json:"name"`
		Count int         `json:"count"`
		Price json.Number `json:"price"`
	}{
		Name:  i.Name,
		Count: i.Count,
		Price: json.Number(i.Price.String()),
	})
}

// UnmarshalJSON accepts any JSON number for count as long as it is a whole
// number, so 2.0 decodes as 2
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Count json.Number     `json:"count"`
		Price decimal.Decimal `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	count := 0
	if raw.Count != "" {
		d, err := decimal.NewFromString(raw.Count.String())
		if err != nil {
			return fmt.Errorf("decoding count: %w", err)
		}
		if count, err = countFrom(d); err != nil {
			return err
		}
	}

	*i = Item{Name: raw.Name, Count: count, Price: raw.Price}
	return nil
}

var (
	minCount = decimal.NewFromInt(math.MinInt)
	maxCount = decimal.NewFromInt(math.MaxInt)
)

// countFrom converts v to a count, rejecting fractions and values that do
// not fit in an int
func countFrom(v decimal.Decimal) (int, error) {
	if !v.Equal(v.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrNotWholeNumber, v)
	}
	if v.LessThan(minCount) || v.GreaterThan(maxCount) {
		return 0, fmt.Errorf("%w: %s", ErrCountTooLarge, v)
	}
	return int(v.IntPart()), nil
}

// Sum adds up the line totals of items
func Sum(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Field names an editable column
type Field string

const (
	FieldCount Field = "count"
	FieldPrice Field = "price"
)

// ParseField accepts "count" or "price"
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldCount, FieldPrice:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}
