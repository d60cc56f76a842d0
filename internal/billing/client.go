// Package billing sends the item list to the document service and saves the
// returned bill.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/zombor/billsmart/internal/ledger"
	"github.com/zombor/billsmart/internal/storage"
)

const (
	// Path of the bill generation endpoint
	Path = "/generate_bill/"
	// DownloadPath prefixes the secondary download link
	DownloadPath = "/download_bill/"
	// FileName the bill is saved under
	FileName = "bill.pdf"
	// BillIDHeader optionally carries the server's identifier for the bill
	BillIDHeader = "X-Bill-ID"
)

// Error is a failed generation: non-2xx status, transport failure or a save
// that could not complete
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := "bill generation failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: HTTP error! Status: %d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Bill is a generated and saved bill. The payload itself is not kept.
type Bill struct {
	ID   string `json:"id,omitempty"`
	Path string `json:"path"`
	Size int    `json:"size"`
}

// Client calls the document generation endpoint
type Client struct {
	baseURL string
	client  *http.Client
	storage storage.Storage
}

// NewClient creates a client; bills are saved through store
func NewClient(baseURL string, client *http.Client, store storage.Storage) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		storage: store,
	}
}

// Generate posts items as a JSON array and saves the returned document as
// bill.pdf. Nothing is saved on failure.
func (c *Client) Generate(ctx context.Context, items []ledger.Item) (*Bill, error) {
	if items == nil {
		items = []ledger.Item{}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return nil, &Error{Message: "encoding items", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Message: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Message: "calling document service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "reading document", Err: err}
	}

	path, err := c.storage.Save(FileName, payload)
	if err != nil {
		return nil, &Error{Message: "saving bill", Err: err}
	}

	return &Bill{
		ID:   strings.TrimSpace(resp.Header.Get(BillIDHeader)),
		Path: path,
		Size: len(payload),
	}, nil
}

// DownloadURL is the link for a server-side bill; it is never fetched here
func (c *Client) DownloadURL(billID string) string {
	if billID == "" {
		return ""
	}
	return c.baseURL + DownloadPath + url.PathEscape(billID)
}
