package entity

import "github.com/shopspring/decimal"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsTerminal reports whether no automatic transition leaves s.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

type PaymentMethod string

const (
	PaymentMethodCreditCard    PaymentMethod = "CREDIT_CARD"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
	PaymentMethodDigitalWallet PaymentMethod = "DIGITAL_WALLET"
)

type Payment struct {
	Timestamps
	ID            int64           `db:"id"`
	OrderID       int64           `db:"order_id"`
	Amount        decimal.Decimal `db:"amount"`
	Method        PaymentMethod   `db:"payment_method"`
	Status        PaymentStatus   `db:"status"`
	TransactionID string          `db:"transaction_id"`
}
