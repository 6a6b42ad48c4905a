package adaptor

import (
	"encoding/json"
	"net/http"

	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type OrderHandler struct {
	service usecase.OrderService
	log     *zap.Logger
}

func NewOrderHandler(service usecase.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.With(zap.String("handler", "order")),
	}
}

// ListTicketTypes handles GET /api/events/{id}/ticket-types
func (h *OrderHandler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "id")
	if !ok {
		utils.ResponseBadRequest(w, "Invalid event ID", nil)
		return
	}

	types, err := h.service.ListTicketTypes(r.Context(), eventID)
	if err != nil {
		handleServiceError(w, h.log, err, "list ticket types")
		return
	}

	utils.ResponseSuccess(w, "Ticket types retrieved successfully", types)
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create order")
		return
	}

	utils.ResponseCreated(w, "Order created successfully", order)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	orderID, ok := pathID(r, "id")
	if !ok {
		utils.ResponseBadRequest(w, "Invalid order ID", nil)
		return
	}

	order, err := h.service.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		handleServiceError(w, h.log, err, "get order")
		return
	}

	utils.ResponseSuccess(w, "Order retrieved successfully", order)
}

// MyTickets handles GET /api/user/tickets
func (h *OrderHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.TicketListRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 10),
		},
		Status: query.Get("status"),
		Query:  query.Get("q"),
	}

	tickets, err := h.service.MyTickets(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, h.log, err, "get tickets")
		return
	}

	utils.ResponseSuccess(w, "Tickets retrieved successfully", tickets)
}
