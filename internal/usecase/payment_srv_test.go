package usecase

import (
	"context"
	"strings"
	"testing"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/gateway"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

func newPaymentService(f *fixture) PaymentService {
	log := zap.NewNop()
	reconciler := gateway.NewReconciler(f.repo, NewIssuanceService(f.repo, log), nil, log)
	vnpay := gateway.NewVNPay(utils.VNPayConfig{
		TmnCode:    "DEMO0001",
		HashSecret: "VNPAYSECRET",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/payments/vnpay/return",
		Version:    "2.1.0",
		Command:    "pay",
		Locale:     "vn",
	}, reconciler, log)
	return NewPaymentService(f.repo, gateway.NewRegistry(vnpay), log)
}

// settle moves a fresh payment for order straight to SUCCESS without issuing.
func (f *fixture) settle(order *entity.Order) *entity.Payment {
	ctx := context.Background()
	p, _ := f.repo.Payment.CreatePayment(ctx, order.ID, order.TotalAmount, entity.PaymentMethodBankTransfer)
	f.repo.Payment.TransitionStatus(ctx, p.ID, entity.PaymentStatusPending, entity.PaymentStatusSuccess, nil)
	return p
}

func TestPaymentStatusFlagsSettledPaymentWithoutTickets(t *testing.T) {
	f := newFixture()
	svc := newPaymentService(f)
	order := f.order(map[*entity.TicketType]int{f.vip: 3})
	p := f.settle(order)

	got, err := svc.Status(context.Background(), f.customer.ID, p.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.Status != entity.PaymentStatusSuccess || !got.RefundPending {
		t.Fatalf("status = %+v", got)
	}
	if strings.Contains(got.Message, "tickets have been issued") {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestPaymentStatusIssued(t *testing.T) {
	f := newFixture()
	svc := newPaymentService(f)
	order := f.order(map[*entity.TicketType]int{f.regular: 1})
	p := f.settle(order)
	f.repo.Order.ClaimIssuance(context.Background(), order.ID, p.ID)

	got, err := svc.Status(context.Background(), f.customer.ID, p.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if got.RefundPending || got.Message != "Payment successful, your tickets have been issued" {
		t.Fatalf("status = %+v", got)
	}
}

func TestInitiateRefusesOrderAwaitingRefund(t *testing.T) {
	f := newFixture()
	svc := newPaymentService(f)
	order := f.order(map[*entity.TicketType]int{f.vip: 3})
	req := &request.InitiatePaymentRequest{OrderID: order.ID, Gateway: gateway.VNPayName}

	if _, err := svc.Initiate(context.Background(), f.customer.ID, req, "203.0.113.9"); err != nil {
		t.Fatalf("first Initiate: %v", err)
	}

	f.settle(order)
	_, err := svc.Initiate(context.Background(), f.customer.ID, req, "203.0.113.9")
	if apperr.KindOf(err) != apperr.KindInvalidState || apperr.CodeOf(err) != "refund_pending" {
		t.Fatalf("err = %v", err)
	}
}

func TestInitiateRefusesIssuedOrder(t *testing.T) {
	f := newFixture()
	svc := newPaymentService(f)
	order := f.order(map[*entity.TicketType]int{f.regular: 1})
	p := f.settle(order)
	f.repo.Order.ClaimIssuance(context.Background(), order.ID, p.ID)

	req := &request.InitiatePaymentRequest{OrderID: order.ID, Gateway: gateway.VNPayName}
	_, err := svc.Initiate(context.Background(), f.customer.ID, req, "")
	if apperr.CodeOf(err) != "order_already_paid" {
		t.Fatalf("err = %v", err)
	}
}
