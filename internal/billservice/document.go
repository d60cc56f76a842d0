package billservice

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/ledger"
)

// Shop is the letterhead printed on every bill
type Shop struct {
	Name    string
	Address string
}

// DefaultShop is the demo supermarket
var DefaultShop = Shop{
	Name:    "XYZ Supermarket",
	Address: "123, Market Street, City | Ph: 9876543210",
}

const (
	rule         = "-------------------------------------------"
	thankYouNote = "Thank you for shopping with us!"
	// the core PDF fonts have no rupee sign
	currencyPrefix = "Rs. "
)

// RenderBill lays out the bill as a single A4 page: letterhead, an
// Item/Qty/Price/Total table, the total row and a closing note.
func RenderBill(shop Shop, items []ledger.Item) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(190, 10, tr(shop.Name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	if shop.Address != "" {
		pdf.CellFormat(190, 10, tr(shop.Address), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(190, 10, rule, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(80, 10, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 10, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 10, "Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 10, "Total", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	for _, item := range items {
		pdf.CellFormat(80, 10, tr(item.Name), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 10, fmt.Sprintf("%d", item.Count), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 10, money(item.Price), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 10, money(item.LineTotal()), "1", 1, "C", false, 0, "")
	}

	pdf.CellFormat(190, 10, rule, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(150, 10, "Total Amount:", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 10, money(ledger.Sum(items)), "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(190, 10, rule, "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 10, thankYouNote, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(d decimal.Decimal) string {
	return currencyPrefix + d.StringFixed(2)
}
