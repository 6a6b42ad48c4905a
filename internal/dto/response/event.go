package response

import (
	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

type TicketTypeResponse struct {
	ID        int64           `json:"id"`
	EventID   int64           `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Sold      int             `json:"sold"`
	Remaining int             `json:"remaining"`
}

type EventTicketTypesResponse struct {
	EventID     int64                `json:"event_id"`
	EventName   string               `json:"event_name"`
	TicketTypes []TicketTypeResponse `json:"ticket_types"`
}

func TicketTypeToResponse(t *entity.TicketType, sold int) TicketTypeResponse {
	return TicketTypeResponse{
		ID:        t.ID,
		EventID:   t.EventID,
		Name:      t.Name,
		Price:     t.Price,
		Quantity:  t.Quantity,
		Sold:      sold,
		Remaining: t.Remaining(sold),
	}
}
