package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ValidationPolicy decides what happens to negative counts and prices
type ValidationPolicy int

const (
	// PolicyAllow accepts negative values as-is, e.g. for discount rows
	PolicyAllow ValidationPolicy = iota
	// PolicyReject refuses the edit with ErrNegativeValue
	PolicyReject
	// PolicyClamp stores zero instead
	PolicyClamp
)

// ParsePolicy maps "allow", "reject" or "clamp" to a policy
func ParsePolicy(s string) (ValidationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "allow":
		return PolicyAllow, nil
	case "reject":
		return PolicyReject, nil
	case "clamp":
		return PolicyClamp, nil
	default:
		return PolicyAllow, fmt.Errorf("unknown validation policy %q (want allow, reject or clamp)", s)
	}
}

func (p ValidationPolicy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyClamp:
		return "clamp"
	default:
		return "allow"
	}
}

// apply returns the value to store for v
func (p ValidationPolicy) apply(v decimal.Decimal) (decimal.Decimal, error) {
	if !v.IsNegative() {
		return v, nil
	}
	switch p {
	case PolicyReject:
		return v, fmt.Errorf("%w: %s", ErrNegativeValue, v)
	case PolicyClamp:
		return decimal.Zero, nil
	default:
		return v, nil
	}
}
