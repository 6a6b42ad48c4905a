package response

import (
	"time"

	"event-ticketing/internal/data/entity"

	"github.com/shopspring/decimal"
)

type OrderDetailResponse struct {
	TicketTypeID   int64           `json:"ticket_type_id"`
	TicketTypeName string          `json:"ticket_type_name,omitempty"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID              int64                 `json:"id"`
	OrderCode       string                `json:"order_code"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	ExtraFee        decimal.Decimal       `json:"extra_fee"`
	Discount        decimal.Decimal       `json:"discount"`
	IssuedPaymentID *int64                `json:"issued_payment_id,omitempty"`
	Details         []OrderDetailResponse `json:"details"`
	Payments        []PaymentResponse     `json:"payments,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func OrderToResponse(order *entity.Order, details []*entity.OrderDetail, names map[int64]string) OrderResponse {
	resp := OrderResponse{
		ID:              order.ID,
		OrderCode:       order.OrderCode,
		TotalAmount:     order.TotalAmount,
		ExtraFee:        order.ExtraFee,
		Discount:        order.Discount,
		IssuedPaymentID: order.IssuedPaymentID,
		Details:         make([]OrderDetailResponse, 0, len(details)),
		CreatedAt:       order.CreatedAt,
	}
	for _, d := range details {
		resp.Details = append(resp.Details, OrderDetailResponse{
			TicketTypeID:   d.TicketTypeID,
			TicketTypeName: names[d.TicketTypeID],
			Quantity:       d.Quantity,
			Price:          d.Price,
			Subtotal:       d.Subtotal(),
		})
	}
	return resp
}
