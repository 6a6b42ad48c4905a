package request

type TicketListRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=ACTIVE USED CANCELLED REFUNDED"`
	Query  string `json:"q" validate:"max=64"`
}

type ValidateQRRequest struct {
	QR      string `json:"qr" validate:"required"`
	EventID int64  `json:"event_id" validate:"required,min=1"`
}
