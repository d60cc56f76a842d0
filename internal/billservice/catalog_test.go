package billservice

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Catalog", func() {
	Describe("DefaultCatalog", func() {
		It("should match names ignoring case and whitespace", func() {
			price, ok := DefaultCatalog().Price("  quaker oats ")
			Expect(ok).To(BeTrue())
			Expect(price.String()).To(Equal("135"))
		})

		It("should price unknown products at zero", func() {
			price, ok := DefaultCatalog().Price("Mango")
			Expect(ok).To(BeFalse())
			Expect(price.IsZero()).To(BeTrue())
		})

		It("should list names alphabetically", func() {
			names := DefaultCatalog().Names()
			Expect(names).To(HaveLen(len(DefaultPrices)))
			Expect(names[0]).To(Equal("Bingo Mad Angles"))
		})
	})

	Describe("LoadCatalog", func() {
		var path string

		BeforeEach(func() {
			path = filepath.Join(GinkgoT().TempDir(), "catalog.yaml")
		})

		It("should read prices from YAML", func() {
			Expect(os.WriteFile(path, []byte("Tea: 12.50\n\"Milk\": 60\n"), 0644)).To(Succeed())
			catalog, err := LoadCatalog(path)
			Expect(err).NotTo(HaveOccurred())
			price, ok := catalog.Price("tea")
			Expect(ok).To(BeTrue())
			Expect(price.String()).To(Equal("12.5"))
			Expect(catalog.Names()).To(Equal([]string{"Milk", "Tea"}))
		})

		It("should reject a negative price", func() {
			Expect(os.WriteFile(path, []byte("Tea: -1\n"), 0644)).To(Succeed())
			_, err := LoadCatalog(path)
			Expect(err).To(MatchError(ContainSubstring("negative price")))
		})

		It("should reject a non-numeric price", func() {
			Expect(os.WriteFile(path, []byte("Tea: cheap\n"), 0644)).To(Succeed())
			_, err := LoadCatalog(path)
			Expect(err).To(HaveOccurred())
		})

		It("should fail for a missing file", func() {
			_, err := LoadCatalog(filepath.Join(GinkgoT().TempDir(), "none.yaml"))
			Expect(err).To(MatchError(ContainSubstring("reading catalog")))
		})
	})
})
