package billservice

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/ledger"
)

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	newBill := func(id string, createdAt time.Time) *Bill {
		return &Bill{
			ID:        id,
			Filename:  id + ".pdf",
			Items:     []ledger.Item{{Name: "Soap", Count: 2, Price: decimal.RequireFromString("30.5")}},
			Total:     "61.00",
			Size:      1024,
			CreatedAt: createdAt,
		}
	}

	Describe("SaveBill and GetBill", func() {
		It("should round-trip the record", func() {
			created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
			Expect(db.SaveBill(newBill("a", created))).To(Succeed())

			bill, err := db.GetBill("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(bill.Filename).To(Equal("a.pdf"))
			Expect(bill.Items).To(HaveLen(1))
			Expect(bill.Items[0].Price.Equal(decimal.RequireFromString("30.5"))).To(BeTrue())
			Expect(bill.CreatedAt.Equal(created)).To(BeTrue())
		})

		It("should return ErrBillNotFound for an unknown ID", func() {
			_, err := db.GetBill("missing")
			Expect(err).To(MatchError(ErrBillNotFound))
		})
	})

	Describe("ListBills", func() {
		It("should return an empty list for a new database", func() {
			bills, err := db.ListBills()
			Expect(err).NotTo(HaveOccurred())
			Expect(bills).NotTo(BeNil())
			Expect(bills).To(BeEmpty())
		})

		It("should return the newest bill first", func() {
			base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
			Expect(db.SaveBill(newBill("old", base))).To(Succeed())
			Expect(db.SaveBill(newBill("new", base.Add(time.Hour)))).To(Succeed())

			bills, err := db.ListBills()
			Expect(err).NotTo(HaveOccurred())
			Expect(bills).To(HaveLen(2))
			Expect(bills[0].ID).To(Equal("new"))
			Expect(bills[1].ID).To(Equal("old"))
		})
	})

	Describe("reopening", func() {
		It("should keep saved bills", func() {
			Expect(db.SaveBill(newBill("kept", time.Now()))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.GetBill("kept")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
