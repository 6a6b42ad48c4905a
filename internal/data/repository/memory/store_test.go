package memory

import (
	"context"
	"errors"
	"testing"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The fakes expose exactly the repository interfaces, no more.
var (
	_ repository.UserRepository       = (*userRepo)(nil)
	_ repository.SessionRepository    = (*sessionRepo)(nil)
	_ repository.EventRepository      = (*eventRepo)(nil)
	_ repository.TicketTypeRepository = (*ticketTypeRepo)(nil)
	_ repository.OrderRepository      = (*orderRepo)(nil)
	_ repository.PaymentRepository    = (*paymentRepo)(nil)
	_ repository.TicketRepository     = (*ticketRepo)(nil)
)

func TestUserRepoHasNoUpdate(t *testing.T) {
	var r any = NewRepository(NewStore()).User
	if _, ok := r.(interface {
		Update(context.Context, *entity.User) error
	}); ok {
		t.Fatal("user repository still exposes Update")
	}
}

func TestWithinTxRollsBack(t *testing.T) {
	s := NewStore()
	repo := NewRepository(s)
	ctx := context.Background()

	order := &entity.Order{OrderCode: "ORD-00000001", CustomerID: uuid.New(), TotalAmount: decimal.NewFromInt(1000)}
	s.AddOrder(order)
	p, err := repo.Payment.CreatePayment(ctx, order.ID, order.TotalAmount, entity.PaymentMethodDigitalWallet)
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	boom := errors.New("boom")
	err = repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		if moved, err := tx.Payment.TransitionStatus(ctx, p.ID, entity.PaymentStatusPending, entity.PaymentStatusSuccess, nil); err != nil || !moved {
			t.Fatalf("transition = %v, %v", moved, err)
		}
		if ok, err := tx.Order.ClaimIssuance(ctx, order.ID, p.ID); err != nil || !ok {
			t.Fatalf("claim = %v, %v", ok, err)
		}
		if err := tx.Ticket.CreateBatch(ctx, []*entity.Ticket{{TicketCode: "TKT-1", Status: entity.TicketStatusActive, OrderID: order.ID}}); err != nil {
			t.Fatalf("CreateBatch: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}

	got, _ := s.Payment(p.ID)
	if got.Status != entity.PaymentStatusPending {
		t.Fatalf("payment status = %s after rollback", got.Status)
	}
	o, _ := s.Order(order.ID)
	if o.IssuedPaymentID != nil {
		t.Fatal("claim survived rollback")
	}
	if s.TicketCount() != 0 {
		t.Fatal("tickets survived rollback")
	}
}

func TestWithinTxCommits(t *testing.T) {
	s := NewStore()
	repo := NewRepository(s)
	ctx := context.Background()

	order := &entity.Order{OrderCode: "ORD-00000002", CustomerID: uuid.New(), TotalAmount: decimal.NewFromInt(1000)}
	s.AddOrder(order)

	err := repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		// nested calls join the outer transaction
		return tx.Tx.WithinTx(ctx, func(inner *repository.Repository) error {
			_, err := inner.Order.ClaimIssuance(ctx, order.ID, 9)
			return err
		})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	o, _ := s.Order(order.ID)
	if o.IssuedPaymentID == nil || *o.IssuedPaymentID != 9 {
		t.Fatalf("issued payment = %v", o.IssuedPaymentID)
	}
}

func TestTransitionStatusIsGuarded(t *testing.T) {
	s := NewStore()
	repo := NewRepository(s)
	ctx := context.Background()

	p, _ := repo.Payment.CreatePayment(ctx, 1, decimal.NewFromInt(5), entity.PaymentMethodBankTransfer)
	moved, _ := repo.Payment.TransitionStatus(ctx, p.ID, entity.PaymentStatusPending, entity.PaymentStatusFailed, nil)
	if !moved {
		t.Fatal("first transition should move")
	}
	moved, _ = repo.Payment.TransitionStatus(ctx, p.ID, entity.PaymentStatusPending, entity.PaymentStatusSuccess, nil)
	if moved {
		t.Fatal("second transition must not move a terminal payment")
	}
	got, _ := s.Payment(p.ID)
	if got.Status != entity.PaymentStatusFailed {
		t.Fatalf("status = %s", got.Status)
	}
}

func TestUpdateStatus(t *testing.T) {
	s := NewStore()
	repo := NewRepository(s)
	ctx := context.Background()

	if err := repo.Payment.UpdateStatus(ctx, 404, entity.PaymentStatusFailed, nil); err != nil {
		t.Fatalf("unknown payment should be a no-op, got %v", err)
	}
	if s.PaymentCount() != 0 {
		t.Fatal("update created a payment")
	}

	p, _ := repo.Payment.CreatePayment(ctx, 1, decimal.NewFromInt(5), entity.PaymentMethodDigitalWallet)
	provisional := p.TransactionID

	if err := repo.Payment.UpdateStatus(ctx, p.ID, entity.PaymentStatusFailed, nil); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ := s.Payment(p.ID)
	if got.Status != entity.PaymentStatusFailed || got.TransactionID != provisional {
		t.Fatalf("after update without id: status %s, txn %q", got.Status, got.TransactionID)
	}

	gatewayTxn := "4088878653"
	if err := repo.Payment.UpdateStatus(ctx, p.ID, entity.PaymentStatusRefunded, &gatewayTxn); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ = s.Payment(p.ID)
	if got.Status != entity.PaymentStatusRefunded || got.TransactionID != gatewayTxn {
		t.Fatalf("after update with id: status %s, txn %q", got.Status, got.TransactionID)
	}
}
