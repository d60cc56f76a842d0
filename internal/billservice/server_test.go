package billservice

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/billsmart/internal/ledger"
	"github.com/zombor/billsmart/internal/scanning"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		store       *mockStorage
		scanner     *mockScanner
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		db = newMockDB()
		store = newMockStorage()
		scanner = &mockScanner{}
		ghttpServer = ghttp.NewServer()
	})

	JustBeforeEach(func() {
		service := NewServiceWithDeps(db, scanner, store, Options{}, &mockIDGenerator{id: "b-42"}, &mockTimeSource{})
		server = NewServer(service)
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	do := func(req *http.Request) *http.Response {
		ghttpServer.AppendHandlers(server.ServeHTTP)
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	get := func(path string) *http.Response {
		req, err := http.NewRequest("GET", ghttpServer.URL()+path, nil)
		Expect(err).NotTo(HaveOccurred())
		return do(req)
	}

	postJSON := func(path, body string) *http.Response {
		req, err := http.NewRequest("POST", ghttpServer.URL()+path, strings.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")
		return do(req)
	}

	postImage := func(data []byte) *http.Response {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="captured.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		Expect(err).NotTo(HaveOccurred())
		part.Write(data)
		Expect(writer.Close()).To(Succeed())

		req, err := http.NewRequest("POST", ghttpServer.URL()+"/process_image/", &body)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return do(req)
	}

	decodeError := func(resp *http.Response) string {
		defer resp.Body.Close()
		var body map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		return body["error"]
	}

	Describe("handleRoot", func() {
		It("should return the welcome message", func() {
			resp := get("/")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("BillSmart", "Welcome to BillSmart API"))
		})
	})

	Describe("handleProcessImage", func() {
		When("items are detected", func() {
			BeforeEach(func() {
				scanner.detections = []scanning.Detection{{Name: "Fanta", Count: 2}}
			})

			It("should return priced items", func() {
				resp := postImage([]byte{0xFF, 0xD8, 0xFF, 0xE0})
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var body struct {
					Items []ledger.Item `json:"items"`
				}
				Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
				Expect(body.Items).To(HaveLen(1))
				Expect(body.Items[0].Count).To(Equal(2))
				Expect(body.Items[0].Price.String()).To(Equal("45"))
			})
		})

		When("nothing is detected", func() {
			It("should return an empty items array", func() {
				resp := postImage([]byte{0xFF, 0xD8, 0xFF, 0xE0})
				defer resp.Body.Close()
				data, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(MatchJSON(`{"items":[]}`))
			})
		})

		When("no file is sent", func() {
			It("should return Bad Request", func() {
				resp := postJSON("/process_image/", "{}")
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decodeError(resp)).To(Equal("Error parsing form"))
			})
		})
	})

	Describe("handleGenerateBill", func() {
		It("should return the PDF with the bill ID", func() {
			resp := postJSON("/generate_bill/", `[{"name":"Soap","count":3,"price":30}]`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/pdf"))
			Expect(resp.Header.Get(BillIDHeader)).To(Equal("b-42"))
			Expect(resp.Header.Get("Access-Control-Expose-Headers")).To(ContainSubstring("X-Bill-ID"))
			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data[:5])).To(Equal("%PDF-"))
			Expect(store.files).To(HaveKey("b-42.pdf"))
		})

		It("should reject an empty list", func() {
			resp := postJSON("/generate_bill/", `[]`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp)).To(Equal("No items provided"))
		})

		It("should reject a malformed body", func() {
			resp := postJSON("/generate_bill/", `{"name":`)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			resp.Body.Close()
		})
	})

	Describe("handleDownloadBill", func() {
		It("should return a generated bill as an attachment", func() {
			postJSON("/generate_bill/", `[{"name":"Soap","count":1,"price":30}]`).Body.Close()

			resp := get("/download_bill/b-42")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Disposition")).To(Equal(`attachment; filename="Bill_b-42.pdf"`))
		})

		It("should return Not Found for an unknown bill", func() {
			resp := get("/download_bill/nope")
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			Expect(decodeError(resp)).To(Equal("Bill not found"))
		})
	})

	Describe("handleListBills", func() {
		It("should list recorded bills", func() {
			postJSON("/generate_bill/", `[{"name":"Soap","count":1,"price":30}]`).Body.Close()

			resp := get("/bills/")
			defer resp.Body.Close()
			var bills []*Bill
			Expect(json.NewDecoder(resp.Body).Decode(&bills)).To(Succeed())
			Expect(bills).To(HaveLen(1))
			Expect(bills[0].Total).To(Equal("30.00"))
		})
	})

	Describe("preflight", func() {
		It("should answer OPTIONS without routing", func() {
			req, err := http.NewRequest("OPTIONS", ghttpServer.URL()+"/generate_bill/", nil)
			Expect(err).NotTo(HaveOccurred())
			resp := do(req)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
		})
	})
})
