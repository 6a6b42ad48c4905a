package gateway

import (
	"fmt"
	"strconv"
	"strings"
)

// Correlation maps a gateway callback back to exactly one ledger row.
type Correlation struct {
	OrderID   int64
	PaymentID int64
}

func (c Correlation) String() string {
	return fmt.Sprintf("%d-%d", c.OrderID, c.PaymentID)
}

// ParseCorrelation parses "{orderId}-{paymentId}".
func ParseCorrelation(s string) (Correlation, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return Correlation{}, fmt.Errorf("correlation %q: missing separator", s)
	}

	orderID, err := strconv.ParseInt(left, 10, 64)
	if err != nil || orderID < 1 {
		return Correlation{}, fmt.Errorf("correlation %q: bad order id", s)
	}
	paymentID, err := strconv.ParseInt(right, 10, 64)
	if err != nil || paymentID < 1 {
		return Correlation{}, fmt.Errorf("correlation %q: bad payment id", s)
	}

	return Correlation{OrderID: orderID, PaymentID: paymentID}, nil
}
