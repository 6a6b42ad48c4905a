package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"

	"go.uber.org/zap"
)

func TestIssueTicketsExactQuantities(t *testing.T) {
	f := newFixture()
	order := f.order(map[*entity.TicketType]int{f.vip: 2, f.regular: 3})
	svc := NewIssuanceService(f.repo, zap.NewNop())

	tickets, err := svc.IssueTickets(context.Background(), order.ID, 900)
	if err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}
	if len(tickets) != 5 {
		t.Fatalf("issued %d tickets, want 5", len(tickets))
	}

	perType := map[int64]int{}
	for _, tk := range f.store.TicketsOfOrder(order.ID) {
		perType[tk.TicketTypeID]++
		if tk.Status != entity.TicketStatusActive {
			t.Errorf("ticket %d status = %s", tk.ID, tk.Status)
		}
		if tk.EventID != f.event.ID {
			t.Errorf("ticket %d event = %d", tk.ID, tk.EventID)
		}
		if !strings.HasPrefix(tk.TicketCode, "TKT-") {
			t.Errorf("ticket code %q", tk.TicketCode)
		}
	}
	if perType[f.vip.ID] != 2 || perType[f.regular.ID] != 3 {
		t.Fatalf("per type = %v", perType)
	}

	stored, _ := f.store.Order(order.ID)
	if stored.IssuedPaymentID == nil || *stored.IssuedPaymentID != 900 {
		t.Fatalf("issued payment = %v", stored.IssuedPaymentID)
	}
}

func TestIssueTicketsIdempotentForSamePayment(t *testing.T) {
	f := newFixture()
	order := f.order(map[*entity.TicketType]int{f.regular: 2})
	svc := NewIssuanceService(f.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.IssueTickets(ctx, order.ID, 7); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	again, err := svc.IssueTickets(ctx, order.ID, 7)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("second issue returned %d tickets, want the existing 2", len(again))
	}
	if n := f.store.TicketCount(); n != 2 {
		t.Fatalf("store holds %d tickets, want 2", n)
	}
}

func TestIssueTicketsRejectsSecondPayment(t *testing.T) {
	f := newFixture()
	order := f.order(map[*entity.TicketType]int{f.regular: 1})
	svc := NewIssuanceService(f.repo, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.IssueTickets(ctx, order.ID, 1); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	_, err := svc.IssueTickets(ctx, order.ID, 2)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if n := f.store.TicketCount(); n != 1 {
		t.Fatalf("store holds %d tickets, want 1", n)
	}
}

func TestIssueTicketsOversoldIsAllOrNothing(t *testing.T) {
	f := newFixture()
	f.soldTicket(f.vip, entity.TicketStatusUsed)
	order := f.order(map[*entity.TicketType]int{f.vip: 2, f.regular: 4})
	svc := NewIssuanceService(f.repo, zap.NewNop())

	_, err := svc.IssueTickets(context.Background(), order.ID, 3)
	if !errors.Is(err, apperr.ErrOversold) {
		t.Fatalf("err = %v, want oversold", err)
	}

	if got := f.store.TicketsOfOrder(order.ID); len(got) != 0 {
		t.Fatalf("oversold order received %d tickets", len(got))
	}
	stored, _ := f.store.Order(order.ID)
	if stored.IssuedPaymentID != nil {
		t.Fatal("oversold order must not be claimed")
	}
}

func TestIssueTicketsIgnoresCancelledStock(t *testing.T) {
	f := newFixture()
	f.soldTicket(f.vip, entity.TicketStatusCancelled)
	f.soldTicket(f.vip, entity.TicketStatusRefunded)
	order := f.order(map[*entity.TicketType]int{f.vip: 2})
	svc := NewIssuanceService(f.repo, zap.NewNop())

	tickets, err := svc.IssueTickets(context.Background(), order.ID, 4)
	if err != nil {
		t.Fatalf("IssueTickets: %v", err)
	}
	if len(tickets) != 2 {
		t.Fatalf("issued %d, want 2", len(tickets))
	}
}

func TestIssueTicketsEmptyOrder(t *testing.T) {
	f := newFixture()
	order := f.order(nil)
	svc := NewIssuanceService(f.repo, zap.NewNop())

	tickets, err := svc.IssueTickets(context.Background(), order.ID, 5)
	if err != nil || len(tickets) != 0 {
		t.Fatalf("got %d tickets, err %v", len(tickets), err)
	}
}
