package repository

import (
	"context"
	"fmt"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EventRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Event, error)
}

type eventRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewEventRepository(db database.Querier, log *zap.Logger) EventRepository {
	return &eventRepository{
		db:  db,
		log: log.With(zap.String("repository", "event")),
	}
}

func (r *eventRepository) FindByID(ctx context.Context, id int64) (*entity.Event, error) {
	query := `
		SELECT id, organizer_id, name, address, start_at, end_at, status, created_at, updated_at
		FROM events
		WHERE id = $1
	`

	var event entity.Event
	err := r.db.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Name,
		&event.Address,
		&event.StartAt,
		&event.EndAt,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find event by ID", zap.Error(err), zap.Int64("event_id", id))
		return nil, fmt.Errorf("find event by ID %d: %w", id, err)
	}

	return &event, nil
}
