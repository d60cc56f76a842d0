package workflow

import (
	"encoding/json"
	"time"

	"github.com/zombor/billsmart/internal/device"
	"github.com/zombor/billsmart/internal/ledger"
)

// ItemView is one ledger row as the screen shows it
type ItemView struct {
	Index     int         `json:"index"`
	Name      string      `json:"name"`
	Count     int         `json:"count"`
	Price     json.Number `json:"price"`
	LineTotal json.Number `json:"line_total"`
}

// BillView is the bill reference offered as a download link
type BillView struct {
	ID          string `json:"id,omitempty"`
	Path        string `json:"path"`
	DownloadURL string `json:"download_url,omitempty"`
}

// View is a consistent snapshot of the session for rendering
type View struct {
	Device       *device.Device `json:"device,omitempty"`
	DeviceNotice string         `json:"device_notice,omitempty"`
	State        string         `json:"state"`
	HasImage     bool           `json:"has_image"`
	CapturedAt   *time.Time     `json:"captured_at,omitempty"`
	Items        []ItemView     `json:"items"`
	Total        json.Number    `json:"total"`
	Submitting   bool           `json:"submitting"`
	Generating   bool           `json:"generating"`
	Bill         *BillView      `json:"bill,omitempty"`
}

// View snapshots the session
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Device:     s.device,
		State:      s.capture.State().String(),
		Submitting: s.submitting,
		Generating: s.generating,
	}
	if s.device == nil {
		v.DeviceNotice = device.ErrDeviceUnavailable.Error()
	}
	if img := s.capture.Image(); img != nil {
		v.HasImage = true
		capturedAt := img.CapturedAt
		v.CapturedAt = &capturedAt
	}

	items := s.ledger.Items()
	v.Total = json.Number(ledger.Sum(items).String())
	v.Items = make([]ItemView, len(items))
	for i, item := range items {
		v.Items[i] = ItemView{
			Index:     i,
			Name:      item.Name,
			Count:     item.Count,
			Price:     json.Number(item.Price.String()),
			LineTotal: json.Number(item.LineTotal().String()),
		}
	}

	if s.bill != nil {
		v.Bill = &BillView{
			ID:          s.bill.ID,
			Path:        s.bill.Path,
			DownloadURL: s.bills.DownloadURL(s.bill.ID),
		}
	}
	return v
}
