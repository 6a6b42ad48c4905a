package entity

import "time"

type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "ACTIVE"
	TicketStatusUsed      TicketStatus = "USED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusRefunded  TicketStatus = "REFUNDED"
)

// SoldStatuses are the ticket states that consume inventory.
var SoldStatuses = []TicketStatus{TicketStatusActive, TicketStatusUsed}

type Ticket struct {
	ID           int64        `db:"id"`
	TicketCode   string       `db:"ticket_code"`
	Status       TicketStatus `db:"status"`
	OrderID      int64        `db:"order_id"`
	TicketTypeID int64        `db:"ticket_type_id"`
	EventID      int64        `db:"event_id"`
	QRData       *string      `db:"qr_data"`
	IssuedAt     *time.Time   `db:"issued_at"`
	UsedAt       *time.Time   `db:"used_at"`
	CreatedAt    time.Time    `db:"created_at"`
}
