package billservice

import (
	"time"

	"github.com/zombor/billsmart/internal/ledger"
)

// Bill is the record kept for every generated bill
type Bill struct {
	ID        string        `json:"id"`
	Filename  string        `json:"filename"`
	Items     []ledger.Item `json:"items"`
	Total     string        `json:"total"`
	Size      int           `json:"size"`
	CreatedAt time.Time     `json:"created_at"`
}
