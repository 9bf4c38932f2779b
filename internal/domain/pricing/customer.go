package pricing

import (
	"strings"

	"github.com/go-faster/errors"
)

// ErrUnknownCustomerClass is returned when a label does not name a known
// customer class.
var ErrUnknownCustomerClass = errors.New("unknown customer type")

// CustomerClass is the customer classification driving discount tiers.
type CustomerClass uint8

const (
	// Regular is the default classification.
	Regular CustomerClass = iota + 1
	// Vip customers get higher discount tiers.
	Vip
)

// Valid reports whether c is one of the declared classes.
func (c CustomerClass) Valid() bool {
	return c == Regular || c == Vip
}

func (c CustomerClass) String() string {
	switch c {
	case Regular:
		return "REGULAR"
	case Vip:
		return "VIP"
	default:
		return "UNKNOWN"
	}
}

// ParseCustomerClass maps a label (case-insensitive) to a CustomerClass.
func ParseCustomerClass(s string) (CustomerClass, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REGULAR":
		return Regular, nil
	case "VIP":
		return Vip, nil
	default:
		return 0, errors.Wrapf(ErrUnknownCustomerClass, "%q", s)
	}
}
