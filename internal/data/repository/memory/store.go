// Package memory provides in-process implementations of the repository interfaces.
package memory

import (
	"context"
	"sync"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"

	"github.com/google/uuid"
)

// Store holds every table. All repositories returned by NewRepository share it.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users       map[uuid.UUID]*entity.User
	sessions    map[uuid.UUID]*entity.Session
	events      map[int64]*entity.Event
	ticketTypes map[int64]*entity.TicketType
	orders      map[int64]*entity.Order
	details     map[int64][]*entity.OrderDetail
	payments    map[int64]*entity.Payment
	tickets     map[int64]*entity.Ticket
	seq         int64
}

func NewStore() *Store {
	return &Store{
		users:       map[uuid.UUID]*entity.User{},
		sessions:    map[uuid.UUID]*entity.Session{},
		events:      map[int64]*entity.Event{},
		ticketTypes: map[int64]*entity.TicketType{},
		orders:      map[int64]*entity.Order{},
		details:     map[int64][]*entity.OrderDetail{},
		payments:    map[int64]*entity.Payment{},
		tickets:     map[int64]*entity.Ticket{},
	}
}

// NewRepository wires a Repository backed by s.
func NewRepository(s *Store) *repository.Repository {
	repo := s.repository()
	repo.Tx = &transactor{store: s}
	return repo
}

func (s *Store) repository() *repository.Repository {
	return &repository.Repository{
		User:       &userRepo{s},
		Session:    &sessionRepo{s},
		Event:      &eventRepo{s},
		TicketType: &ticketTypeRepo{s},
		Order:      &orderRepo{s},
		Payment:    &paymentRepo{s},
		Ticket:     &ticketRepo{s},
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// transactor serialises transactions and restores the previous state when fn fails.
type transactor struct {
	store *Store
}

func (t *transactor) WithinTx(ctx context.Context, fn func(tx *repository.Repository) error) error {
	s := t.store
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	tx := s.repository()
	tx.Tx = joined{tx}

	if err := fn(tx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type joined struct {
	repo *repository.Repository
}

func (j joined) WithinTx(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(j.repo)
}

type snapshot struct {
	orders   map[int64]entity.Order
	payments map[int64]entity.Payment
	tickets  map[int64]entity.Ticket
	details  map[int64][]*entity.OrderDetail
	seq      int64
}

// snapshot covers the tables mutated inside transactions.
func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		orders:   make(map[int64]entity.Order, len(s.orders)),
		payments: make(map[int64]entity.Payment, len(s.payments)),
		tickets:  make(map[int64]entity.Ticket, len(s.tickets)),
		details:  make(map[int64][]*entity.OrderDetail, len(s.details)),
		seq:      s.seq,
	}
	for id, o := range s.orders {
		snap.orders[id] = *o
	}
	for id, p := range s.payments {
		snap.payments[id] = *p
	}
	for id, t := range s.tickets {
		snap.tickets[id] = *t
	}
	for id, d := range s.details {
		snap.details[id] = d
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders = make(map[int64]*entity.Order, len(snap.orders))
	for id, o := range snap.orders {
		o := o
		s.orders[id] = &o
	}
	s.payments = make(map[int64]*entity.Payment, len(snap.payments))
	for id, p := range snap.payments {
		p := p
		s.payments[id] = &p
	}
	s.tickets = make(map[int64]*entity.Ticket, len(snap.tickets))
	for id, t := range snap.tickets {
		t := t
		s.tickets[id] = &t
	}
	s.details = snap.details
	s.seq = snap.seq
}

// ==================== SEEDING & INSPECTION ====================

func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	c := *u
	s.users[u.ID] = &c
}

func (s *Store) AddEvent(e *entity.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		e.ID = s.nextID()
	}
	c := *e
	s.events[e.ID] = &c
}

func (s *Store) AddTicketType(t *entity.TicketType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextID()
	}
	c := *t
	s.ticketTypes[t.ID] = &c
}

// AddOrder stores the order and its details, assigning ids.
func (s *Store) AddOrder(o *entity.Order, details ...*entity.OrderDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertOrder(o, details)
}

func (s *Store) insertOrder(o *entity.Order, details []*entity.OrderDetail) {
	if o.ID == 0 {
		o.ID = s.nextID()
	}
	c := *o
	s.orders[o.ID] = &c

	stored := make([]*entity.OrderDetail, 0, len(details))
	for _, d := range details {
		if d.ID == 0 {
			d.ID = s.nextID()
		}
		d.OrderID = o.ID
		dc := *d
		stored = append(stored, &dc)
	}
	s.details[o.ID] = stored
}

// AddTicket stores a ticket as-is, assigning an id when absent.
func (s *Store) AddTicket(t *entity.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextID()
	}
	c := *t
	s.tickets[t.ID] = &c
}

func (s *Store) Payment(id int64) (entity.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return entity.Payment{}, false
	}
	return *p, true
}

func (s *Store) Order(id int64) (entity.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return entity.Order{}, false
	}
	return *o, true
}

func (s *Store) Ticket(id int64) (entity.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return entity.Ticket{}, false
	}
	return *t, true
}

// TicketsOfOrder returns copies of the order's tickets in id order.
func (s *Store) TicketsOfOrder(orderID int64) []entity.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Ticket
	for _, t := range s.sortedTickets() {
		if t.OrderID == orderID {
			out = append(out, *t)
		}
	}
	return out
}

func (s *Store) TicketCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

func (s *Store) PaymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}
