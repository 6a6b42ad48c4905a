package request

type OrderItemRequest struct {
	TicketTypeID int64 `json:"ticket_type_id" validate:"required,min=1"`
	Quantity     int   `json:"quantity" validate:"required,min=1,max=50"`
}

type CreateOrderRequest struct {
	EventID int64              `json:"event_id" validate:"required,min=1"`
	Items   []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}
