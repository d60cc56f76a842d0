package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/shopspring/decimal"

	"github.com/zombor/billsmart/internal/ledger"
)

func TestBilling(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Billing Suite")
}

// mockStorage is a mock implementation of storage.Storage
type mockStorage struct {
	files   map[string][]byte
	saveErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{files: make(map[string][]byte)}
}

func (m *mockStorage) Save(name string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.files[name] = data
	return "/downloads/" + name, nil
}

func (m *mockStorage) Get(name string) ([]byte, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, errors.New("file not found")
	}
	return data, nil
}

func (m *mockStorage) Delete(name string) error {
	delete(m.files, name)
	return nil
}

var pdfPayload = []byte("%PDF-1.3\nfake bill\n%%EOF")

var _ = Describe("Client", func() {
	var (
		server *ghttp.Server
		store  *mockStorage
		client *Client
		items  []ledger.Item
		bill   *Bill
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		store = newMockStorage()
		client = NewClient(server.URL(), nil, store)
		items = []ledger.Item{{Name: "Soap", Count: 3, Price: decimal.NewFromInt(30)}}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		bill, err = client.Generate(context.Background(), items)
	})

	When("generation succeeds", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/generate_bill/"),
				ghttp.VerifyContentType("application/json"),
				ghttp.VerifyJSON(`[{"name":"Soap","count":3,"price":30}]`),
				ghttp.RespondWith(http.StatusOK, pdfPayload, http.Header{
					"Content-Type": []string{"application/pdf"},
					"X-Bill-Id":    []string{"b-123"},
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should save the payload as bill.pdf", func() {
			Expect(store.files).To(HaveKeyWithValue("bill.pdf", pdfPayload))
			Expect(bill.Path).To(Equal("/downloads/bill.pdf"))
			Expect(bill.Size).To(Equal(len(pdfPayload)))
		})

		It("should capture the bill reference", func() {
			Expect(bill.ID).To(Equal("b-123"))
			Expect(client.DownloadURL(bill.ID)).To(Equal(server.URL() + "/download_bill/b-123"))
		})
	})

	When("the service returns no bill reference", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, pdfPayload))
		})

		It("should leave the reference empty", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(bill.ID).To(BeEmpty())
			Expect(client.DownloadURL(bill.ID)).To(BeEmpty())
		})
	})

	When("the item list is empty", func() {
		BeforeEach(func() {
			items = nil
			server.AppendHandlers(ghttp.CombineHandlers(
				func(w http.ResponseWriter, r *http.Request) {
					defer GinkgoRecover()
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					var decoded []json.RawMessage
					Expect(json.Unmarshal(body, &decoded)).To(Succeed())
					Expect(string(body)).To(Equal("[]"))
				},
				ghttp.RespondWith(http.StatusBadRequest, `{"error":"No items provided"}`),
			))
		})

		It("should send an empty JSON array", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the service returns status 500", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))
		})

		It("returns a billing Error including the status code", func() {
			var genErr *Error
			Expect(errors.As(err, &genErr)).To(BeTrue())
			Expect(genErr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(err.Error()).To(ContainSubstring("500"))
		})

		It("should not save anything", func() {
			Expect(store.files).To(BeEmpty())
			Expect(bill).To(BeNil())
		})
	})

	When("saving fails", func() {
		var setupErr error

		BeforeEach(func() {
			setupErr = errors.New("disk full")
			store.saveErr = setupErr
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, pdfPayload))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(setupErr))
			Expect(bill).To(BeNil())
		})
	})

	When("the service is unreachable", func() {
		BeforeEach(func() {
			server.Close()
		})

		It("returns a billing Error", func() {
			var genErr *Error
			Expect(errors.As(err, &genErr)).To(BeTrue())
			Expect(store.files).To(BeEmpty())
		})
	})
})
