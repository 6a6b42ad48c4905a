package gateway_test

import (
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/data/repository/memory"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/messaging"
	"event-ticketing/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type harness struct {
	store      *memory.Store
	repo       *repository.Repository
	events     *messaging.Recorder
	reconciler *gateway.Reconciler
	ticketType *entity.TicketType
}

func newHarness(capacity int) *harness {
	store := memory.NewStore()
	repo := memory.NewRepository(store)
	events := &messaging.Recorder{}
	log := zap.NewNop()

	event := &entity.Event{OrganizerID: uuid.New(), Name: "Night Run", Status: entity.EventStatusPublished}
	store.AddEvent(event)
	tt := &entity.TicketType{EventID: event.ID, Name: "General", Price: decimal.NewFromInt(100000), Quantity: capacity, Active: true}
	store.AddTicketType(tt)

	return &harness{
		store:      store,
		repo:       repo,
		events:     events,
		reconciler: gateway.NewReconciler(repo, usecase.NewIssuanceService(repo, log), events, log),
		ticketType: tt,
	}
}

// order stores an order for qty tickets of the harness type. It bypasses the
// stock check so tests can arrange oversell.
func (h *harness) order(qty int) *entity.Order {
	detail := &entity.OrderDetail{TicketTypeID: h.ticketType.ID, Quantity: qty, Price: h.ticketType.Price}
	o := &entity.Order{
		OrderCode:   "ORD-1A2B3C4D",
		CustomerID:  uuid.New(),
		TotalAmount: entity.OrderTotal([]*entity.OrderDetail{detail}, decimal.Zero, decimal.Zero),
	}
	h.store.AddOrder(o, detail)
	return o
}

func (h *harness) paymentStatus(id int64) entity.PaymentStatus {
	p, _ := h.store.Payment(id)
	return p.Status
}
