package scanning

import (
	"context"
	"fmt"
	"strings"
)

// Detection is one product the scanner saw in the image. Prices are not
// read from the image; they come from the shop's catalog.
type Detection struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Scanner defines the interface for item detection
type Scanner interface {
	// ScanItems analyzes a photo of the counter and lists the products on it
	ScanItems(ctx context.Context, imageData []byte, contentType string) ([]Detection, error)
	// Close closes the scanner and releases resources
	Close() error
}

// itemScanPrompt is the shared prompt used by all LLM providers. products,
// when given, are the names the model should prefer.
func itemScanPrompt(products []string) string {
	var b strings.Builder
	b.WriteString(`You are looking at a photo of products placed on a shop counter for billing. Identify every distinct product and count how many units of each are visible.

Return ONLY valid JSON in this exact format:
[
  {"name": "Product Name", "count": 1}
]

Important:
- count must be a whole number of visible units
- list each product once, with its total count
- if no products are visible, return []
- Do not include any text before or after the JSON
- Do not use markdown code blocks`)

	if len(products) > 0 {
		b.WriteString("\n\nThe shop sells the following products. When a product matches one of them, use that exact name:\n")
		for _, p := range products {
			fmt.Fprintf(&b, "- %s\n", strings.TrimSpace(p))
		}
	}
	return b.String()
}
