package response

import (
	"time"

	"event-ticketing/internal/data/entity"
)

type TicketResponse struct {
	ID             int64               `json:"id"`
	TicketCode     string              `json:"ticket_code"`
	Status         entity.TicketStatus `json:"status"`
	OrderID        int64               `json:"order_id"`
	TicketTypeID   int64               `json:"ticket_type_id"`
	TicketTypeName string              `json:"ticket_type_name,omitempty"`
	EventID        int64               `json:"event_id"`
	HasQR          bool                `json:"has_qr"`
	IssuedAt       *time.Time          `json:"issued_at,omitempty"`
	UsedAt         *time.Time          `json:"used_at,omitempty"`
}

type QRResponse struct {
	TicketID int64      `json:"ticket_id"`
	QR       string     `json:"qr"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
}

type BuyerSummary struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CheckInResponse struct {
	AlreadyCheckedIn bool          `json:"already_checked_in"`
	TicketID         int64         `json:"ticket_id"`
	TicketCode       string        `json:"ticket_code"`
	TicketType       string        `json:"ticket_type,omitempty"`
	EventID          int64         `json:"event_id"`
	Buyer            *BuyerSummary `json:"buyer,omitempty"`
	CheckedInAt      time.Time     `json:"checked_in_at"`
}

func TicketToResponse(t *entity.Ticket, typeName string) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		TicketCode:     t.TicketCode,
		Status:         t.Status,
		OrderID:        t.OrderID,
		TicketTypeID:   t.TicketTypeID,
		TicketTypeName: typeName,
		EventID:        t.EventID,
		HasQR:          t.QRData != nil,
		IssuedAt:       t.IssuedAt,
		UsedAt:         t.UsedAt,
	}
}
