package repository

import (
	"context"

	"event-ticketing/pkg/database"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Repository struct {
	User       UserRepository
	Session    SessionRepository
	Event      EventRepository
	TicketType TicketTypeRepository
	Order      OrderRepository
	Payment    PaymentRepository
	Ticket     TicketRepository

	Tx Transactor
}

// Transactor runs fn with a Repository whose every member shares one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

func NewRepository(db database.PgxIface, refs *utils.RefGenerator, log *zap.Logger) *Repository {
	repo := newRepository(db, refs, log)
	repo.Tx = &pgTransactor{db: db, refs: refs, log: log}
	return repo
}

func newRepository(q database.Querier, refs *utils.RefGenerator, log *zap.Logger) *Repository {
	return &Repository{
		User:       NewUserRepository(q, log),
		Session:    NewSessionRepository(q, log),
		Event:      NewEventRepository(q, log),
		TicketType: NewTicketTypeRepository(q, log),
		Order:      NewOrderRepository(q, log),
		Payment:    NewPaymentRepository(q, refs, log),
		Ticket:     NewTicketRepository(q, log),
	}
}

type pgTransactor struct {
	db   database.PgxIface
	refs *utils.RefGenerator
	log  *zap.Logger
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTx(ctx, t.db, func(q database.Querier) error {
		tx := newRepository(q, t.refs, t.log)
		// nested calls join the outer transaction
		tx.Tx = joinedTx{repo: tx}
		return fn(tx)
	})
}

type joinedTx struct {
	repo *Repository
}

func (j joinedTx) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(j.repo)
}
