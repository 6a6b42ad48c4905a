package repository

import (
	"context"
	"fmt"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OrderRepository interface {
	// Create inserts the order and its details, filling in the generated ids.
	Create(ctx context.Context, order *entity.Order, details []*entity.OrderDetail) error
	FindByID(ctx context.Context, id int64) (*entity.Order, error)
	FindDetails(ctx context.Context, orderID int64) ([]*entity.OrderDetail, error)

	// ClaimIssuance records paymentID as the order's issuing payment unless one is already recorded.
	ClaimIssuance(ctx context.Context, orderID, paymentID int64) (bool, error)
}

type orderRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewOrderRepository(db database.Querier, log *zap.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log.With(zap.String("repository", "order")),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order, details []*entity.OrderDetail) error {
	query := `
		INSERT INTO orders (order_code, customer_id, total_amount, extra_fee, discount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		order.OrderCode,
		order.CustomerID,
		order.TotalAmount,
		order.ExtraFee,
		order.Discount,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		r.log.Error("Failed to create order",
			zap.Error(err),
			zap.String("order_code", order.OrderCode),
			zap.String("customer_id", order.CustomerID.String()),
		)
		return fmt.Errorf("create order %s: %w", order.OrderCode, err)
	}

	detailQuery := `
		INSERT INTO order_details (order_id, ticket_type_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for _, d := range details {
		d.OrderID = order.ID
		if err := r.db.QueryRow(ctx, detailQuery, d.OrderID, d.TicketTypeID, d.Quantity, d.Price).Scan(&d.ID); err != nil {
			r.log.Error("Failed to create order detail",
				zap.Error(err),
				zap.Int64("order_id", order.ID),
				zap.Int64("ticket_type_id", d.TicketTypeID),
			)
			return fmt.Errorf("create order detail for order %d: %w", order.ID, err)
		}
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*entity.Order, error) {
	query := `
		SELECT id, order_code, customer_id, total_amount, extra_fee, discount,
		       issued_payment_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order entity.Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.OrderCode,
		&order.CustomerID,
		&order.TotalAmount,
		&order.ExtraFee,
		&order.Discount,
		&order.IssuedPaymentID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find order by ID", zap.Error(err), zap.Int64("order_id", id))
		return nil, fmt.Errorf("find order by ID %d: %w", id, err)
	}

	return &order, nil
}

func (r *orderRepository) FindDetails(ctx context.Context, orderID int64) ([]*entity.OrderDetail, error) {
	query := `
		SELECT id, order_id, ticket_type_id, quantity, price
		FROM order_details
		WHERE order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		r.log.Error("Failed to get order details", zap.Error(err), zap.Int64("order_id", orderID))
		return nil, fmt.Errorf("find details of order %d: %w", orderID, err)
	}
	defer rows.Close()

	var details []*entity.OrderDetail
	for rows.Next() {
		var d entity.OrderDetail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.TicketTypeID, &d.Quantity, &d.Price); err != nil {
			r.log.Error("Failed to scan order detail row", zap.Error(err))
			return nil, fmt.Errorf("scan order detail row: %w", err)
		}
		details = append(details, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order detail rows: %w", err)
	}

	return details, nil
}

func (r *orderRepository) ClaimIssuance(ctx context.Context, orderID, paymentID int64) (bool, error) {
	query := `
		UPDATE orders
		SET issued_payment_id = $2, updated_at = NOW()
		WHERE id = $1 AND issued_payment_id IS NULL
	`

	result, err := r.db.Exec(ctx, query, orderID, paymentID)
	if err != nil {
		r.log.Error("Failed to claim order issuance",
			zap.Error(err),
			zap.Int64("order_id", orderID),
			zap.Int64("payment_id", paymentID),
		)
		return false, fmt.Errorf("claim issuance of order %d: %w", orderID, err)
	}

	return result.RowsAffected() == 1, nil
}
