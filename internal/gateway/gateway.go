// Package gateway holds the payment gateway adapters and the reconciliation
// rules they share.
package gateway

import (
	"context"
	"fmt"
	"sort"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

// Initiation is what the buyer needs to leave for the gateway.
type Initiation struct {
	Gateway   string `json:"gateway"`
	PayURL    string `json:"pay_url"`
	OrderID   int64  `json:"order_id"`
	PaymentID int64  `json:"payment_id"`
	Reference string `json:"reference"`
}

// Reason says which gate decided a notification.
type Reason string

const (
	ReasonAccepted    Reason = "accepted"
	ReasonSignature   Reason = "signature_invalid"
	ReasonCorrelation Reason = "bad_correlation"
	ReasonLookup      Reason = "payment_order_mismatch"
	ReasonAmount      Reason = "amount_mismatch"
	ReasonInternal    Reason = "internal_error"
)

// Outcome is the result of an asynchronous notification. Ack is the
// gateway-specific acknowledgement body.
type Outcome struct {
	Accepted  bool
	Reason    Reason
	OrderID   int64
	PaymentID int64
	Status    entity.PaymentStatus
	Ack       any
}

// ReturnInfo is the display-only summary of a browser return.
type ReturnInfo struct {
	Verified      bool                 `json:"verified"`
	ResultCode    string               `json:"result_code"`
	OrderID       int64                `json:"order_id,omitempty"`
	PaymentID     int64                `json:"payment_id,omitempty"`
	Amount        *decimal.Decimal     `json:"amount,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Message       string               `json:"message,omitempty"`
	LedgerStatus  entity.PaymentStatus `json:"ledger_status,omitempty"`
}

type PaymentGateway interface {
	Name() string
	Method() entity.PaymentMethod

	// Initiate creates a PENDING payment for the order and returns the redirect.
	// amountHint, when set, must equal the order total.
	Initiate(ctx context.Context, orderID int64, amountHint *decimal.Decimal, clientIP string) (*Initiation, error)

	// ProcessNotification is the authoritative, idempotent callback path.
	ProcessNotification(ctx context.Context, params map[string]string) Outcome

	// ProcessBrowserReturn never writes.
	ProcessBrowserReturn(ctx context.Context, params map[string]string) ReturnInfo
}

// Registry selects a gateway by name.
type Registry struct {
	gateways map[string]PaymentGateway
}

func NewRegistry(gateways ...PaymentGateway) *Registry {
	r := &Registry{gateways: make(map[string]PaymentGateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

func (r *Registry) Get(name string) (PaymentGateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, apperr.InvalidInput("unknown_gateway", fmt.Sprintf("unknown payment gateway %q", name))
	}
	return g, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for n := range r.gateways {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
