package billservice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/ledger"
)

var _ = Describe("RenderBill", func() {
	It("should produce a PDF document", func() {
		data, err := RenderBill(DefaultShop, []ledger.Item{
			{Name: "Soap", Count: 2, Price: decimal.NewFromInt(30)},
			{Name: "Café Latte", Count: 1, Price: decimal.RequireFromString("45.5")},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data[:5])).To(Equal("%PDF-"))
		Expect(string(data)).To(ContainSubstring("%%EOF"))
	})

	It("should render a shop without an address", func() {
		data, err := RenderBill(Shop{Name: "Corner Store"}, []ledger.Item{{Name: "Tea", Count: 1, Price: decimal.NewFromInt(10)}})
		Expect(err).NotTo(HaveOccurred())
		Expect(data).NotTo(BeEmpty())
	})
})

var _ = Describe("money", func() {
	It("should print two decimals", func() {
		Expect(money(decimal.RequireFromString("19.5"))).To(Equal("Rs. 19.50"))
	})
})
