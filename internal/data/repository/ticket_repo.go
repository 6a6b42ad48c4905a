package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TicketFilter narrows a buyer's ticket listing.
type TicketFilter struct {
	Status entity.TicketStatus
	Query  string
	Limit  int
	Offset int
}

type TicketRepository interface {
	// CountSold counts ACTIVE and USED tickets per ticket type.
	CountSold(ctx context.Context, ticketTypeIDs []int64) (map[int64]int, error)
	CreateBatch(ctx context.Context, tickets []*entity.Ticket) error
	FindByID(ctx context.Context, id int64) (*entity.Ticket, error)
	FindByQR(ctx context.Context, token string) (*entity.Ticket, error)
	FindByOrderID(ctx context.Context, orderID int64) ([]*entity.Ticket, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, filter TicketFilter) ([]*entity.Ticket, int64, error)

	// SetQR stores token only when the ticket has none yet.
	SetQR(ctx context.Context, id int64, token string, issuedAt time.Time) (bool, error)

	// MarkUsed moves an ACTIVE ticket to USED and reports whether the row moved.
	MarkUsed(ctx context.Context, id int64, usedAt time.Time) (bool, error)
}

type ticketRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTicketRepository(db database.Querier, log *zap.Logger) TicketRepository {
	return &ticketRepository{
		db:  db,
		log: log.With(zap.String("repository", "ticket")),
	}
}

const ticketColumns = `t.id, t.ticket_code, t.status, t.order_id, t.ticket_type_id, t.event_id,
		       t.qr_data, t.issued_at, t.used_at, t.created_at`

func scanTicket(row pgx.Row) (*entity.Ticket, error) {
	var t entity.Ticket
	err := row.Scan(
		&t.ID,
		&t.TicketCode,
		&t.Status,
		&t.OrderID,
		&t.TicketTypeID,
		&t.EventID,
		&t.QRData,
		&t.IssuedAt,
		&t.UsedAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepository) CountSold(ctx context.Context, ticketTypeIDs []int64) (map[int64]int, error) {
	query := `
		SELECT ticket_type_id, COUNT(*)
		FROM tickets
		WHERE ticket_type_id = ANY($1) AND status IN ('ACTIVE', 'USED')
		GROUP BY ticket_type_id
	`

	rows, err := r.db.Query(ctx, query, ticketTypeIDs)
	if err != nil {
		r.log.Error("Failed to count sold tickets", zap.Error(err), zap.Int64s("ticket_type_ids", ticketTypeIDs))
		return nil, fmt.Errorf("count sold tickets %v: %w", ticketTypeIDs, err)
	}
	defer rows.Close()

	sold := make(map[int64]int, len(ticketTypeIDs))
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan sold count row: %w", err)
		}
		sold[id] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sold count rows: %w", err)
	}
	return sold, nil
}

// CreateBatch inserts all tickets in one round trip and fills in their ids.
func (r *ticketRepository) CreateBatch(ctx context.Context, tickets []*entity.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	query := `
		INSERT INTO tickets (ticket_code, status, order_id, ticket_type_id, event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, t := range tickets {
		t := t
		batch.Queue(query,
			t.TicketCode,
			t.Status,
			t.OrderID,
			t.TicketTypeID,
			t.EventID,
			t.CreatedAt,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&t.ID)
		})
	}

	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		r.log.Error("Failed to create tickets",
			zap.Error(err),
			zap.Int64("order_id", tickets[0].OrderID),
			zap.Int("count", len(tickets)),
		)
		return fmt.Errorf("create %d tickets for order %d: %w", len(tickets), tickets[0].OrderID, err)
	}

	return nil
}

func (r *ticketRepository) FindByID(ctx context.Context, id int64) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id = $1`

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket by ID", zap.Error(err), zap.Int64("ticket_id", id))
		return nil, fmt.Errorf("find ticket by ID %d: %w", id, err)
	}
	return ticket, nil
}

func (r *ticketRepository) FindByQR(ctx context.Context, token string) (*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.qr_data = $1`

	ticket, err := scanTicket(r.db.QueryRow(ctx, query, token))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find ticket by QR", zap.Error(err))
		return nil, fmt.Errorf("find ticket by qr: %w", err)
	}
	return ticket, nil
}

func (r *ticketRepository) FindByOrderID(ctx context.Context, orderID int64) ([]*entity.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.order_id = $1 ORDER BY t.id ASC`

	tickets, err := r.list(ctx, query, orderID)
	if err != nil {
		r.log.Error("Failed to list order tickets", zap.Error(err), zap.Int64("order_id", orderID))
		return nil, fmt.Errorf("find tickets of order %d: %w", orderID, err)
	}
	return tickets, nil
}

func (r *ticketRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, filter TicketFilter) ([]*entity.Ticket, int64, error) {
	where := []string{"o.customer_id = $1"}
	args := []any{customerID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("t.ticket_code ILIKE $%d", len(args)))
	}

	from := ` FROM tickets t JOIN orders o ON o.id = t.order_id WHERE ` + strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+from, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count customer tickets", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, 0, fmt.Errorf("count tickets of customer %s: %w", customerID, err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := `SELECT ` + ticketColumns + from +
		fmt.Sprintf(" ORDER BY t.created_at DESC, t.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	tickets, err := r.list(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list customer tickets", zap.Error(err), zap.String("customer_id", customerID.String()))
		return nil, 0, fmt.Errorf("list tickets of customer %s: %w", customerID, err)
	}

	return tickets, total, nil
}

func (r *ticketRepository) SetQR(ctx context.Context, id int64, token string, issuedAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET qr_data = $2, issued_at = $3
		WHERE id = $1 AND qr_data IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, token, issuedAt)
	if err != nil {
		r.log.Error("Failed to set ticket QR", zap.Error(err), zap.Int64("ticket_id", id))
		return false, fmt.Errorf("set qr of ticket %d: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *ticketRepository) MarkUsed(ctx context.Context, id int64, usedAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET status = 'USED', used_at = $2
		WHERE id = $1 AND status = 'ACTIVE'
	`

	result, err := r.db.Exec(ctx, query, id, usedAt)
	if err != nil {
		r.log.Error("Failed to mark ticket used", zap.Error(err), zap.Int64("ticket_id", id))
		return false, fmt.Errorf("mark ticket %d used: %w", id, err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Ticket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*entity.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ticket rows: %w", err)
	}
	return tickets, nil
}
