package request

import "github.com/shopspring/decimal"

type InitiatePaymentRequest struct {
	OrderID int64  `json:"order_id" validate:"required,min=1"`
	Gateway string `json:"gateway" validate:"required,oneof=momo vnpay"`

	// Amount is only compared against the order total.
	Amount *decimal.Decimal `json:"amount,omitempty"`
}
