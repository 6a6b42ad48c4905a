package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/dto/response"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderService interface {
	ListTicketTypes(ctx context.Context, eventID int64) (*response.EventTicketTypesResponse, error)
	CreateOrder(ctx context.Context, customerID uuid.UUID, req *request.CreateOrderRequest) (*response.OrderResponse, error)
	GetOrder(ctx context.Context, customerID uuid.UUID, orderID int64) (*response.OrderResponse, error)
	MyTickets(ctx context.Context, customerID uuid.UUID, req *request.TicketListRequest) (*response.PaginatedResponse[response.TicketResponse], error)
}

type orderService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewOrderService(repo *repository.Repository, log *zap.Logger) OrderService {
	return &orderService{
		repo: repo,
		log:  log.With(zap.String("service", "order")),
	}
}

func (s *orderService) ListTicketTypes(ctx context.Context, eventID int64) (*response.EventTicketTypesResponse, error) {
	event, err := s.repo.Event.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event")
	}
	if event == nil {
		return nil, apperr.NotFound("event_not_found", "event not found")
	}

	types, err := s.repo.TicketType.ListActiveByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket types")
	}

	sold, err := s.repo.Ticket.CountSold(ctx, ticketTypeIDs(types))
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets")
	}

	resp := &response.EventTicketTypesResponse{
		EventID:     event.ID,
		EventName:   event.Name,
		TicketTypes: make([]response.TicketTypeResponse, 0, len(types)),
	}
	for _, t := range types {
		resp.TicketTypes = append(resp.TicketTypes, response.TicketTypeToResponse(t, sold[t.ID]))
	}
	return resp, nil
}

// CreateOrder snapshots prices and checks stock. The check is advisory;
// issuance re-checks under lock.
func (s *orderService) CreateOrder(ctx context.Context, customerID uuid.UUID, req *request.CreateOrderRequest) (*response.OrderResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create order validation failed", zap.Any("errors", errs))
		return nil, apperr.InvalidInput("validation_failed", "validation failed: "+utils.FormatValidationErrors(errs))
	}

	event, err := s.repo.Event.FindByID(ctx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event")
	}
	if event == nil {
		return nil, apperr.NotFound("event_not_found", "event not found")
	}

	// Merge repeated lines for the same ticket type
	quantities := make(map[int64]int, len(req.Items))
	for _, item := range req.Items {
		quantities[item.TicketTypeID] += item.Quantity
	}
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	types, err := s.repo.TicketType.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket types")
	}
	typeByID := make(map[int64]*entity.TicketType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	sold, err := s.repo.Ticket.CountSold(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count sold tickets")
	}

	details := make([]*entity.OrderDetail, 0, len(ids))
	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		tt, ok := typeByID[id]
		if !ok || tt.EventID != event.ID || !tt.Active {
			return nil, apperr.InvalidInput("invalid_ticket_type", fmt.Sprintf("ticket type %d is not on sale for this event", id))
		}
		if remaining := tt.Remaining(sold[id]); quantities[id] > remaining {
			return nil, apperr.New(apperr.KindConflict, "insufficient_stock",
				fmt.Sprintf("only %d %q tickets left", remaining, tt.Name))
		}
		details = append(details, &entity.OrderDetail{
			TicketTypeID: id,
			Quantity:     quantities[id],
			Price:        tt.Price,
		})
		names[id] = tt.Name
	}

	now := time.Now()
	order := &entity.Order{
		Timestamps:  entity.Timestamps{CreatedAt: now, UpdatedAt: now},
		OrderCode:   utils.GenerateOrderCode(),
		CustomerID:  customerID,
		ExtraFee:    decimal.Zero,
		Discount:    decimal.Zero,
		TotalAmount: entity.OrderTotal(details, decimal.Zero, decimal.Zero),
	}

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		return tx.Order.Create(ctx, order, details)
	})
	if err != nil {
		s.log.Error("Failed to create order", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, fmt.Errorf("failed to create order")
	}

	s.log.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_code", order.OrderCode),
		zap.String("total", order.TotalAmount.String()),
	)

	resp := response.OrderToResponse(order, details, names)
	return &resp, nil
}

func (s *orderService) GetOrder(ctx context.Context, customerID uuid.UUID, orderID int64) (*response.OrderResponse, error) {
	order, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	details, err := s.repo.Order.FindDetails(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order details")
	}

	ids := make([]int64, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.TicketTypeID)
	}
	names, err := s.typeNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.Payment.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments")
	}

	resp := response.OrderToResponse(order, details, names)
	for _, p := range payments {
		resp.Payments = append(resp.Payments, response.PaymentToResponse(p))
	}
	return &resp, nil
}

func (s *orderService) MyTickets(ctx context.Context, customerID uuid.UUID, req *request.TicketListRequest) (*response.PaginatedResponse[response.TicketResponse], error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}
	if req.PerPage > 100 {
		req.PerPage = 100
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.InvalidInput("validation_failed", "validation failed: "+utils.FormatValidationErrors(errs))
	}

	tickets, total, err := s.repo.Ticket.ListByCustomer(ctx, customerID, repository.TicketFilter{
		Status: entity.TicketStatus(req.Status),
		Query:  req.Query,
		Limit:  req.Limit(),
		Offset: req.Offset(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets")
	}

	ids := make([]int64, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.TicketTypeID)
	}
	names, err := s.typeNames(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]response.TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, response.TicketToResponse(t, names[t.TicketTypeID]))
	}

	s.log.Debug("Tickets retrieved",
		zap.String("customer_id", customerID.String()),
		zap.Int("count", len(items)),
		zap.Int64("total", total),
		zap.Int("total_pages", utils.CalculateTotalPages(total, req.PerPage)),
	)

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

// ==================== HELPER METHODS ====================

func (s *orderService) ownedOrder(ctx context.Context, customerID uuid.UUID, orderID int64) (*entity.Order, error) {
	order, err := s.repo.Order.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order")
	}
	if order == nil {
		return nil, apperr.NotFound("order_not_found", "order not found")
	}
	if order.CustomerID != customerID {
		s.log.Warn("Order access denied",
			zap.Int64("order_id", orderID),
			zap.String("customer_id", customerID.String()),
		)
		return nil, apperr.AccessDenied("you do not own this order")
	}
	return order, nil
}

func (s *orderService) typeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	types, err := s.repo.TicketType.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket types")
	}
	for _, t := range types {
		names[t.ID] = t.Name
	}
	return names, nil
}

func ticketTypeIDs(types []*entity.TicketType) []int64 {
	ids := make([]int64, 0, len(types))
	for _, t := range types {
		ids = append(ids, t.ID)
	}
	return ids
}
