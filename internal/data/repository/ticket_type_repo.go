package repository

import (
	"context"
	"fmt"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/database"

	"go.uber.org/zap"
)

type TicketTypeRepository interface {
	ListActiveByEvent(ctx context.Context, eventID int64) ([]*entity.TicketType, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*entity.TicketType, error)

	// LockByIDs takes row locks in ascending id order; only meaningful inside a transaction.
	LockByIDs(ctx context.Context, ids []int64) ([]*entity.TicketType, error)
}

type ticketTypeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTicketTypeRepository(db database.Querier, log *zap.Logger) TicketTypeRepository {
	return &ticketTypeRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket_type")),
	}
}

const ticketTypeColumns = `id, event_id, name, price, quantity, active, created_at, updated_at`

func (r *ticketTypeRepository) ListActiveByEvent(ctx context.Context, eventID int64) ([]*entity.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE event_id = $1 AND active = TRUE
		ORDER BY price ASC, id ASC
	`

	types, err := r.query(ctx, query, eventID)
	if err != nil {
		r.log.Error("Failed to list ticket types", zap.Error(err), zap.Int64("event_id", eventID))
		return nil, fmt.Errorf("list ticket types of event %d: %w", eventID, err)
	}
	return types, nil
}

func (r *ticketTypeRepository) FindByIDs(ctx context.Context, ids []int64) ([]*entity.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE id = ANY($1)
		ORDER BY id ASC
	`

	types, err := r.query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to find ticket types", zap.Error(err), zap.Int64s("ids", ids))
		return nil, fmt.Errorf("find ticket types %v: %w", ids, err)
	}
	return types, nil
}

func (r *ticketTypeRepository) LockByIDs(ctx context.Context, ids []int64) ([]*entity.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types
		WHERE id = ANY($1)
		ORDER BY id ASC
		FOR UPDATE
	`

	types, err := r.query(ctx, query, ids)
	if err != nil {
		r.log.Error("Failed to lock ticket types", zap.Error(err), zap.Int64s("ids", ids))
		return nil, fmt.Errorf("lock ticket types %v: %w", ids, err)
	}
	return types, nil
}

func (r *ticketTypeRepository) query(ctx context.Context, query string, args ...any) ([]*entity.TicketType, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*entity.TicketType
	for rows.Next() {
		var t entity.TicketType
		if err := rows.Scan(
			&t.ID,
			&t.EventID,
			&t.Name,
			&t.Price,
			&t.Quantity,
			&t.Active,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ticket type row: %w", err)
		}
		types = append(types, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket type rows: %w", err)
	}
	return types, nil
}
