package usecase

import (
	"context"
	"testing"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/dto/request"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	f := newFixture()
	svc := NewOrderService(f.repo, zap.NewNop())

	resp, err := svc.CreateOrder(context.Background(), f.customer.ID, &request.CreateOrderRequest{
		EventID: f.event.ID,
		Items: []request.OrderItemRequest{
			{TicketTypeID: f.regular.ID, Quantity: 2},
			{TicketTypeID: f.vip.ID, Quantity: 1},
			{TicketTypeID: f.regular.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	want := decimal.NewFromInt(250000)
	if !resp.TotalAmount.Equal(want) {
		t.Fatalf("total = %s, want %s", resp.TotalAmount, want)
	}
	if len(resp.Details) != 2 {
		t.Fatalf("details = %d, want 2 merged lines", len(resp.Details))
	}

	stored, ok := f.store.Order(resp.ID)
	if !ok || stored.CustomerID != f.customer.ID {
		t.Fatalf("stored order = %+v", stored)
	}
}

func TestCreateOrderRejectsOverAvailable(t *testing.T) {
	f := newFixture()
	f.soldTicket(f.vip, entity.TicketStatusActive)
	svc := NewOrderService(f.repo, zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), f.customer.ID, &request.CreateOrderRequest{
		EventID: f.event.ID,
		Items:   []request.OrderItemRequest{{TicketTypeID: f.vip.ID, Quantity: 2}},
	})
	if apperr.CodeOf(err) != "insufficient_stock" {
		t.Fatalf("err = %v, want insufficient_stock", err)
	}
}

func TestCreateOrderRejectsForeignTicketType(t *testing.T) {
	f := newFixture()
	other := &entity.Event{Name: "Other", Status: entity.EventStatusPublished}
	f.store.AddEvent(other)
	foreign := &entity.TicketType{EventID: other.ID, Name: "GA", Price: decimal.NewFromInt(1000), Quantity: 10, Active: true}
	f.store.AddTicketType(foreign)
	svc := NewOrderService(f.repo, zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), f.customer.ID, &request.CreateOrderRequest{
		EventID: f.event.ID,
		Items:   []request.OrderItemRequest{{TicketTypeID: foreign.ID, Quantity: 1}},
	})
	if apperr.KindOf(err) != apperr.KindInvalidInput {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture()
	svc := NewOrderService(f.repo, zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), f.customer.ID, &request.CreateOrderRequest{EventID: f.event.ID})
	if apperr.CodeOf(err) != "validation_failed" {
		t.Fatalf("err = %v, want validation_failed", err)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture()
	order := f.order(map[*entity.TicketType]int{f.regular: 1})
	svc := NewOrderService(f.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.GetOrder(ctx, f.customer.ID, order.ID); err != nil {
		t.Fatalf("owner GetOrder: %v", err)
	}
	if _, err := svc.GetOrder(ctx, uuid.New(), order.ID); apperr.KindOf(err) != apperr.KindAccessDenied {
		t.Fatalf("stranger err = %v, want access denied", err)
	}
	if _, err := svc.GetOrder(ctx, f.customer.ID, 424242); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("missing err = %v, want not found", err)
	}
}

func TestListTicketTypesReportsRemaining(t *testing.T) {
	f := newFixture()
	f.soldTicket(f.vip, entity.TicketStatusActive)
	svc := NewOrderService(f.repo, zap.NewNop())

	resp, err := svc.ListTicketTypes(context.Background(), f.event.ID)
	if err != nil {
		t.Fatalf("ListTicketTypes: %v", err)
	}
	for _, tt := range resp.TicketTypes {
		if tt.ID == f.vip.ID && tt.Remaining != 1 {
			t.Fatalf("VIP remaining = %d, want 1", tt.Remaining)
		}
	}
}

func TestMyTicketsOnlyOwn(t *testing.T) {
	f := newFixture()
	order := f.order(map[*entity.TicketType]int{f.regular: 2})
	f.soldTicket(f.regular, entity.TicketStatusActive)
	if _, err := NewIssuanceService(f.repo, zap.NewNop()).IssueTickets(context.Background(), order.ID, 1); err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}
	svc := NewOrderService(f.repo, zap.NewNop())

	page, err := svc.MyTickets(context.Background(), f.customer.ID, &request.TicketListRequest{})
	if err != nil {
		t.Fatalf("MyTickets: %v", err)
	}
	if page.Pagination.Total != 2 || len(page.Data) != 2 {
		t.Fatalf("page = total %d, %d items", page.Pagination.Total, len(page.Data))
	}
	if page.Data[0].TicketTypeName != "Regular" {
		t.Fatalf("type name = %q", page.Data[0].TicketTypeName)
	}
}
