package usecase

import (
	"context"
	"fmt"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/dto/response"
	"event-ticketing/internal/gateway"
	"event-ticketing/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	Initiate(ctx context.Context, customerID uuid.UUID, req *request.InitiatePaymentRequest, clientIP string) (*gateway.Initiation, error)
	Status(ctx context.Context, customerID uuid.UUID, paymentID int64) (*response.PaymentStatusResponse, error)
	HandleNotification(ctx context.Context, gatewayName string, params map[string]string) (gateway.Outcome, error)
	HandleReturn(ctx context.Context, gatewayName string, params map[string]string) (gateway.ReturnInfo, error)
}

type paymentService struct {
	repo     *repository.Repository
	registry *gateway.Registry
	log      *zap.Logger
}

func NewPaymentService(repo *repository.Repository, registry *gateway.Registry, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:     repo,
		registry: registry,
		log:      log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) Initiate(ctx context.Context, customerID uuid.UUID, req *request.InitiatePaymentRequest, clientIP string) (*gateway.Initiation, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Initiate payment validation failed", zap.Any("errors", errs))
		return nil, apperr.InvalidInput("validation_failed", "validation failed: "+utils.FormatValidationErrors(errs))
	}

	gw, err := s.registry.Get(req.Gateway)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.Order.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order")
	}
	if order == nil {
		return nil, apperr.NotFound("order_not_found", "order not found")
	}
	if order.CustomerID != customerID {
		s.log.Warn("Payment for foreign order refused",
			zap.Int64("order_id", order.ID),
			zap.String("customer_id", customerID.String()),
		)
		return nil, apperr.AccessDenied("you do not own this order")
	}
	if order.IssuedPaymentID != nil {
		return nil, apperr.InvalidState("order_already_paid", "order has already been paid")
	}

	// A settled payment that did not issue tickets is waiting for a refund.
	payments, err := s.repo.Payment.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order payments")
	}
	for _, p := range payments {
		if p.Status == entity.PaymentStatusSuccess {
			s.log.Warn("Payment for order awaiting refund refused",
				zap.Int64("order_id", order.ID),
				zap.Int64("settled_payment_id", p.ID),
			)
			return nil, apperr.InvalidState("refund_pending", "a previous payment for this order is being refunded")
		}
	}

	return gw.Initiate(ctx, order.ID, req.Amount, clientIP)
}

func (s *paymentService) Status(ctx context.Context, customerID uuid.UUID, paymentID int64) (*response.PaymentStatusResponse, error) {
	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment")
	}
	if payment == nil {
		return nil, apperr.NotFound("payment_not_found", "payment not found")
	}

	order, err := s.repo.Order.FindByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order")
	}
	if order == nil || order.CustomerID != customerID {
		return nil, apperr.AccessDenied("you do not own this payment")
	}

	refundPending := payment.Status == entity.PaymentStatusSuccess && !order.IssuedBy(payment.ID)
	return &response.PaymentStatusResponse{
		PaymentID:     payment.ID,
		OrderID:       payment.OrderID,
		Status:        payment.Status,
		RefundPending: refundPending,
		Message:       statusMessage(payment.Status, refundPending),
	}, nil
}

func statusMessage(status entity.PaymentStatus, refundPending bool) string {
	switch status {
	case entity.PaymentStatusSuccess:
		if refundPending {
			return "Payment received but tickets could not be issued, a refund is being processed"
		}
		return "Payment successful, your tickets have been issued"
	case entity.PaymentStatusFailed:
		return "Payment failed"
	case entity.PaymentStatusRefunded:
		return "Payment refunded"
	default:
		return "Waiting for confirmation from the payment gateway"
	}
}

func (s *paymentService) HandleNotification(ctx context.Context, gatewayName string, params map[string]string) (gateway.Outcome, error) {
	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return gateway.Outcome{}, err
	}
	return gw.ProcessNotification(ctx, params), nil
}

func (s *paymentService) HandleReturn(ctx context.Context, gatewayName string, params map[string]string) (gateway.ReturnInfo, error) {
	gw, err := s.registry.Get(gatewayName)
	if err != nil {
		return gateway.ReturnInfo{}, err
	}
	return gw.ProcessBrowserReturn(ctx, params), nil
}
