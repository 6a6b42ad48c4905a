package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

type Event struct {
	Timestamps
	ID          int64       `db:"id"`
	OrganizerID uuid.UUID   `db:"organizer_id"`
	Name        string      `db:"name"`
	Address     string      `db:"address"`
	StartAt     time.Time   `db:"start_at"`
	EndAt       time.Time   `db:"end_at"`
	Status      EventStatus `db:"status"`
}

// TicketType is a priced admission class of an event with a fixed quantity ceiling.
type TicketType struct {
	Timestamps
	ID       int64           `db:"id"`
	EventID  int64           `db:"event_id"`
	Name     string          `db:"name"`
	Price    decimal.Decimal `db:"price"`
	Quantity int             `db:"quantity"`
	Active   bool            `db:"active"`
}

// Remaining returns how many units are left given the sold count.
func (t *TicketType) Remaining(sold int) int {
	if r := t.Quantity - sold; r > 0 {
		return r
	}
	return 0
}
