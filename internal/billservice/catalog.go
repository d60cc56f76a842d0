package billservice

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is the shop's price list, keyed by product name. Lookups ignore
// case and surrounding whitespace.
type Catalog struct {
	prices map[string]decimal.Decimal
	names  []string
}

// DefaultPrices is the price list of the demo supermarket
var DefaultPrices = map[string]int64{
	"Bingo Mad Angles":           20,
	"Bottle":                     10,
	"Cinthol":                    30,
	"Coconut water":              20,
	"Colin":                      115,
	"Dark Fantasy":               50,
	"Exo Soap":                   20,
	"Fanta":                      45,
	"Harpic":                     95,
	"India Gate - Feast Rozzana": 100,
	"Lays":                       20,
	"Lotte Chocopie":             50,
	"Mixed Fruit":                90,
	"Moms magic":                 10,
	"Odonil":                     20,
	"Parle-G":                    30,
	"Quaker Oats":                135,
	"Savlon Herbal":              165,
	"Sprit":                      45,
	"Thums-up":                   45,
}

// NewCatalog builds a catalog from name/price pairs
func NewCatalog(prices map[string]decimal.Decimal) *Catalog {
	c := &Catalog{prices: make(map[string]decimal.Decimal, len(prices))}
	for name, price := range prices {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c.prices[catalogKey(name)] = price
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}

// DefaultCatalog returns the demo supermarket's catalog
func DefaultCatalog() *Catalog {
	prices := make(map[string]decimal.Decimal, len(DefaultPrices))
	for name, price := range DefaultPrices {
		prices[name] = decimal.NewFromInt(price)
	}
	return NewCatalog(prices)
}

// LoadCatalog reads a YAML mapping of product name to price
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	prices := make(map[string]decimal.Decimal, len(raw))
	for name, value := range raw {
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parsing price for %q: %w", name, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("negative price for %q", name)
		}
		prices[name] = price
	}
	return NewCatalog(prices), nil
}

// Price returns the catalog price; unknown products are priced at zero
func (c *Catalog) Price(name string) (decimal.Decimal, bool) {
	price, ok := c.prices[catalogKey(name)]
	if !ok {
		return decimal.Zero, false
	}
	return price, true
}

// Names lists the products in alphabetical order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
