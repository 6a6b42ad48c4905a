package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	Timestamps
	ID              int64           `db:"id"`
	OrderCode       string          `db:"order_code"`
	CustomerID      uuid.UUID       `db:"customer_id"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	ExtraFee        decimal.Decimal `db:"extra_fee"`
	Discount        decimal.Decimal `db:"discount"`
	IssuedPaymentID *int64          `db:"issued_payment_id"`
}

// IssuedBy reports whether paymentID is the payment that drove issuance.
func (o *Order) IssuedBy(paymentID int64) bool {
	return o.IssuedPaymentID != nil && *o.IssuedPaymentID == paymentID
}

// OrderDetail is an immutable snapshot of one purchased ticket-type line.
type OrderDetail struct {
	ID           int64           `db:"id"`
	OrderID      int64           `db:"order_id"`
	TicketTypeID int64           `db:"ticket_type_id"`
	Quantity     int             `db:"quantity"`
	Price        decimal.Decimal `db:"price"`
}

func (d *OrderDetail) Subtotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// OrderTotal computes sum(price*quantity) + extraFee - discount.
func OrderTotal(details []*OrderDetail, extraFee, discount decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range details {
		total = total.Add(d.Subtotal())
	}
	return total.Add(extraFee).Sub(discount)
}
