package usecase

import (
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/data/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fixture struct {
	store    *memory.Store
	repo     *repository.Repository
	customer *entity.User
	event    *entity.Event
	vip      *entity.TicketType
	regular  *entity.TicketType
}

// newFixture seeds one customer and one event with a 2-seat VIP type and a
// 100-seat regular type.
func newFixture() *fixture {
	store := memory.NewStore()
	f := &fixture{store: store, repo: memory.NewRepository(store)}

	f.customer = &entity.User{Username: "alice", Email: "alice@example.com", Role: entity.RoleCustomer, IsActive: true}
	store.AddUser(f.customer)

	f.event = &entity.Event{
		OrganizerID: uuid.New(),
		Name:        "Summer Fest",
		StartAt:     time.Now().Add(48 * time.Hour),
		EndAt:       time.Now().Add(52 * time.Hour),
		Status:      entity.EventStatusPublished,
	}
	store.AddEvent(f.event)

	f.vip = &entity.TicketType{EventID: f.event.ID, Name: "VIP", Price: decimal.NewFromInt(100000), Quantity: 2, Active: true}
	f.regular = &entity.TicketType{EventID: f.event.ID, Name: "Regular", Price: decimal.NewFromInt(50000), Quantity: 100, Active: true}
	store.AddTicketType(f.vip)
	store.AddTicketType(f.regular)
	return f
}

// order stores an order for the customer with one detail line per pair of (type, quantity).
func (f *fixture) order(lines map[*entity.TicketType]int) *entity.Order {
	details := make([]*entity.OrderDetail, 0, len(lines))
	for tt, qty := range lines {
		details = append(details, &entity.OrderDetail{TicketTypeID: tt.ID, Quantity: qty, Price: tt.Price})
	}
	o := &entity.Order{
		OrderCode:   "ORD-TEST",
		CustomerID:  f.customer.ID,
		TotalAmount: entity.OrderTotal(details, decimal.Zero, decimal.Zero),
	}
	f.store.AddOrder(o, details...)
	return o
}

func (f *fixture) soldTicket(tt *entity.TicketType, status entity.TicketStatus) *entity.Ticket {
	holder := &entity.Order{OrderCode: "ORD-OTHER", CustomerID: uuid.New(), TotalAmount: tt.Price}
	f.store.AddOrder(holder)
	t := &entity.Ticket{
		TicketCode:   "TKT-SEED",
		Status:       status,
		OrderID:      holder.ID,
		TicketTypeID: tt.ID,
		EventID:      tt.EventID,
	}
	f.store.AddTicket(t)
	return t
}
