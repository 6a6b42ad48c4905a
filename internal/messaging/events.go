// Package messaging publishes ticketing domain events.
package messaging

import (
	"context"
	"time"
)

const (
	RoutingTicketsIssued  = "tickets.issued"
	RoutingRefundRequired = "payment.refund_required"
)

// Reasons carried by RefundRequired.
const (
	RefundReasonOversold         = "oversold"
	RefundReasonDuplicatePayment = "duplicate_payment"
	RefundReasonNotPending       = "payment_not_pending"
)

type TicketsIssued struct {
	OrderID   int64     `json:"order_id"`
	PaymentID int64     `json:"payment_id"`
	TicketIDs []int64   `json:"ticket_ids"`
	IssuedAt  time.Time `json:"issued_at"`
}

// RefundRequired asks an external flow to return money the gateway already moved.
type RefundRequired struct {
	OrderID       int64     `json:"order_id"`
	PaymentID     int64     `json:"payment_id"`
	Gateway       string    `json:"gateway"`
	TransactionID string    `json:"transaction_id"`
	Amount        string    `json:"amount"`
	Reason        string    `json:"reason"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishTicketsIssued(ctx context.Context, evt TicketsIssued) error
	PublishRefundRequired(ctx context.Context, evt RefundRequired) error
	Close() error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishTicketsIssued(context.Context, TicketsIssued) error   { return nil }
func (Noop) PublishRefundRequired(context.Context, RefundRequired) error { return nil }
func (Noop) Close() error                                               { return nil }
