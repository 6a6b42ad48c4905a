package repository

import (
	"context"
	"errors"
	"testing"

	"event-ticketing/internal/data/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// batchQuerier records batches and answers each queued INSERT with the next id.
type batchQuerier struct {
	batches []*pgx.Batch
	nextID  int64
	failAt  int
}

func (q *batchQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (q *batchQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return idRow{err: errors.New("unexpected QueryRow")}
}

func (q *batchQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected Exec")
}

func (q *batchQuerier) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	q.batches = append(q.batches, b)
	return &idResults{q: q, batch: b}
}

type idResults struct {
	q     *batchQuerier
	batch *pgx.Batch
	n     int
}

func (r *idResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (r *idResults) Query() (pgx.Rows, error)         { return nil, errors.New("unexpected Query") }

func (r *idResults) QueryRow() pgx.Row {
	r.n++
	if r.q.failAt == r.n {
		return idRow{err: errors.New("duplicate key value violates unique constraint")}
	}
	r.q.nextID++
	return idRow{id: r.q.nextID}
}

func (r *idResults) Close() error {
	for _, qq := range r.batch.QueuedQueries {
		if qq.Fn == nil {
			continue
		}
		if err := qq.Fn(r); err != nil {
			return err
		}
	}
	return nil
}

type idRow struct {
	id  int64
	err error
}

func (r idRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.id
	return nil
}

func TestCreateBatchSendsOneBatch(t *testing.T) {
	q := &batchQuerier{nextID: 100}
	repo := NewTicketRepository(q, zap.NewNop())

	tickets := []*entity.Ticket{
		{TicketCode: "TKT-A", Status: entity.TicketStatusActive, OrderID: 7, TicketTypeID: 1, EventID: 3},
		{TicketCode: "TKT-B", Status: entity.TicketStatusActive, OrderID: 7, TicketTypeID: 1, EventID: 3},
		{TicketCode: "TKT-C", Status: entity.TicketStatusActive, OrderID: 7, TicketTypeID: 2, EventID: 3},
	}
	if err := repo.CreateBatch(context.Background(), tickets); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	if len(q.batches) != 1 || q.batches[0].Len() != 3 {
		t.Fatalf("batches = %d", len(q.batches))
	}
	for i, tk := range tickets {
		if tk.ID != int64(101+i) {
			t.Errorf("ticket %s id = %d", tk.TicketCode, tk.ID)
		}
		if got := q.batches[0].QueuedQueries[i].Arguments[0]; got != tk.TicketCode {
			t.Errorf("queued code = %v, want %s", got, tk.TicketCode)
		}
	}
}

func TestCreateBatchReportsInsertFailure(t *testing.T) {
	q := &batchQuerier{failAt: 2}
	repo := NewTicketRepository(q, zap.NewNop())

	tickets := []*entity.Ticket{{TicketCode: "TKT-A", OrderID: 7}, {TicketCode: "TKT-A", OrderID: 7}}
	if err := repo.CreateBatch(context.Background(), tickets); err == nil {
		t.Fatal("duplicate insert should fail the batch")
	}
}

func TestCreateBatchEmpty(t *testing.T) {
	q := &batchQuerier{}
	if err := NewTicketRepository(q, zap.NewNop()).CreateBatch(context.Background(), nil); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if len(q.batches) != 0 {
		t.Fatal("empty batch sent")
	}
}
