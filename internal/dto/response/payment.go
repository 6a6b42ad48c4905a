package response

import (
	"time"

	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

type PaymentResponse struct {
	ID            int64                `json:"id"`
	OrderID       int64                `json:"order_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Method        entity.PaymentMethod `json:"method"`
	Status        entity.PaymentStatus `json:"status"`
	TransactionID string               `json:"transaction_id"`
	CreatedAt     time.Time            `json:"created_at"`
}

// PaymentStatusResponse backs the status page; it always reflects the ledger.
type PaymentStatusResponse struct {
	PaymentID int64                `json:"payment_id"`
	OrderID   int64                `json:"order_id"`
	Status    entity.PaymentStatus `json:"status"`
	Message   string               `json:"message"`

	// RefundPending marks a settled payment that issued no tickets.
	RefundPending bool `json:"refund_pending,omitempty"`
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Method:        p.Method,
		Status:        p.Status,
		TransactionID: p.TransactionID,
		CreatedAt:     p.CreatedAt,
	}
}
