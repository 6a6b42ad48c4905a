package repository

import (
	"context"
	"fmt"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/database"
	"event-ticketing/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRepository is the payment ledger. It performs no business validation.
type PaymentRepository interface {
	// CreatePayment inserts a PENDING payment carrying a provisional transaction reference.
	CreatePayment(ctx context.Context, orderID int64, amount decimal.Decimal, method entity.PaymentMethod) (*entity.Payment, error)
	FindByID(ctx context.Context, id int64) (*entity.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) ([]*entity.Payment, error)

	// UpdateStatus overwrites the status. An unknown paymentID is a no-op.
	UpdateStatus(ctx context.Context, paymentID int64, status entity.PaymentStatus, transactionID *string) error

	// TransitionStatus moves the payment from one status to another and reports whether the row moved.
	TransitionStatus(ctx context.Context, paymentID int64, from, to entity.PaymentStatus, transactionID *string) (bool, error)
}

type paymentRepository struct {
	db   database.Querier
	refs *utils.RefGenerator
	log  *zap.Logger
}

func NewPaymentRepository(db database.Querier, refs *utils.RefGenerator, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:   db,
		refs: refs,
		log:  log.With(zap.String("repository", "payment")),
	}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, orderID int64, amount decimal.Decimal, method entity.PaymentMethod) (*entity.Payment, error) {
	now := time.Now()
	payment := &entity.Payment{
		Timestamps:    entity.Timestamps{CreatedAt: now, UpdatedAt: now},
		OrderID:       orderID,
		Amount:        amount,
		Method:        method,
		Status:        entity.PaymentStatusPending,
		TransactionID: r.refs.NextTxn(),
	}

	query := `
		INSERT INTO payments (order_id, amount, payment_method, status, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		payment.OrderID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.TransactionID,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.Int64("order_id", orderID),
			zap.String("method", string(method)),
		)
		return nil, fmt.Errorf("create payment for order %d: %w", orderID, err)
	}

	return payment, nil
}

const paymentColumns = `id, order_id, amount, payment_method, status, transaction_id, created_at, updated_at`

func (r *paymentRepository) FindByID(ctx context.Context, id int64) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var p entity.Payment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.TransactionID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID", zap.Error(err), zap.Int64("payment_id", id))
		return nil, fmt.Errorf("find payment by ID %d: %w", id, err)
	}

	return &p, nil
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID int64) ([]*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		r.log.Error("Failed to list payments", zap.Error(err), zap.Int64("order_id", orderID))
		return nil, fmt.Errorf("find payments of order %d: %w", orderID, err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(
			&p.ID,
			&p.OrderID,
			&p.Amount,
			&p.Method,
			&p.Status,
			&p.TransactionID,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan payment row", zap.Error(err))
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, paymentID int64, status entity.PaymentStatus, transactionID *string) error {
	query := `
		UPDATE payments
		SET status = $2, transaction_id = COALESCE($3, transaction_id), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, paymentID, status, transactionID)
	if err != nil {
		r.log.Error("Failed to update payment status",
			zap.Error(err),
			zap.Int64("payment_id", paymentID),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update payment status %d: %w", paymentID, err)
	}

	if result.RowsAffected() == 0 {
		r.log.Warn("Payment not found, status update skipped", zap.Int64("payment_id", paymentID))
	}

	return nil
}

func (r *paymentRepository) TransitionStatus(ctx context.Context, paymentID int64, from, to entity.PaymentStatus, transactionID *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $3, transaction_id = COALESCE($4, transaction_id), updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, paymentID, from, to, transactionID)
	if err != nil {
		r.log.Error("Failed to transition payment status",
			zap.Error(err),
			zap.Int64("payment_id", paymentID),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("transition payment %d %s->%s: %w", paymentID, from, to, err)
	}

	return result.RowsAffected() == 1, nil
}
