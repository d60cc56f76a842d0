// Package recognition submits captured images to the recognition service.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/zombor/billsmart/internal/ledger"
)

const (
	// Path of the recognition endpoint
	Path = "/process_image/"
	// FileField is the multipart field carrying the image
	FileField = "file"
	// FileName sent with the image part
	FileName = "captured.jpg"
)

// ErrNoImage is returned when there is nothing to submit
var ErrNoImage = errors.New("no image to submit")

// Error is a failed recognition call: bad status, malformed body or transport failure
type Error struct {
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := "recognition failed"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
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

// response is the recognition endpoint's success body
type response struct {
	Items []ledger.Item `json:"items"`
	Error string        `json:"error,omitempty"`
}

// Client calls the recognition endpoint. Each call is a single attempt.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for the service at baseURL; a nil http client
// uses http.DefaultClient
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Recognize uploads a JPEG image and returns the recognized items.
// A missing "items" field is an empty list, not an error.
func (c *Client) Recognize(ctx context.Context, image []byte) ([]ledger.Item, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FileField, FileName))
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &Error{Message: "creating form part", Err: err}
	}
	if _, err := part.Write(image); err != nil {
		return nil, &Error{Message: "writing image", Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &Error{Message: "closing form", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Path, &body)
	if err != nil {
		return nil, &Error{Message: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &Error{Message: "calling recognition service", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var result response
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "decoding response", Err: err}
	}
	if result.Items == nil {
		result.Items = []ledger.Item{}
	}
	return result.Items, nil
}

// errorMessage pulls {"error": "..."} out of a failure body, falling back to the raw text
func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(data))
}
