package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== USERS & SESSIONS ====================

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("create user %s: duplicate key", user.Email)
		}
	}
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok && u.DeletedAt == nil {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *userRepo) find(match func(*entity.User) bool) *entity.User {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.DeletedAt == nil && match(u) {
			c := *u
			return &c
		}
	}
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email }), nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username }), nil
}

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *session
	r.s.sessions[session.Token] = &c
	return nil
}

func (r *sessionRepo) FindValidSession(_ context.Context, token string) (*entity.Session, error) {
	tok, err := uuid.Parse(token)
	if err != nil {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[tok]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (r *sessionRepo) Revoke(_ context.Context, token string) error {
	tok, _ := uuid.Parse(token)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sess, ok := r.s.sessions[tok]
	if !ok || sess.RevokedAt != nil {
		return fmt.Errorf("session not found or already revoked")
	}
	now := time.Now()
	sess.RevokedAt = &now
	return nil
}

func (r *sessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			sess.RevokedAt = &now
		}
	}
	return nil
}

func (r *sessionRepo) CleanExpiredSessions(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	var n int64
	for tok, sess := range r.s.sessions {
		if sess.ExpiresAt.Before(cutoff) {
			delete(r.s.sessions, tok)
			n++
		}
	}
	return n, nil
}

// ==================== CATALOG ====================

type eventRepo struct{ s *Store }

func (r *eventRepo) FindByID(_ context.Context, id int64) (*entity.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.events[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, nil
}

type ticketTypeRepo struct{ s *Store }

func (r *ticketTypeRepo) ListActiveByEvent(_ context.Context, eventID int64) ([]*entity.TicketType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TicketType
	for _, t := range r.s.ticketTypes {
		if t.EventID == eventID && t.Active {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Price.Cmp(out[j].Price); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ticketTypeRepo) FindByIDs(_ context.Context, ids []int64) ([]*entity.TicketType, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.TicketType
	for _, id := range sortedIDs(ids) {
		if t, ok := r.s.ticketTypes[id]; ok {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

// LockByIDs is FindByIDs; the transactor already serialises transactions.
func (r *ticketTypeRepo) LockByIDs(ctx context.Context, ids []int64) ([]*entity.TicketType, error) {
	return r.FindByIDs(ctx, ids)
}

func sortedIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ==================== ORDERS ====================

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(_ context.Context, order *entity.Order, details []*entity.OrderDetail) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.OrderCode == order.OrderCode {
			return fmt.Errorf("create order %s: duplicate key", order.OrderCode)
		}
	}
	order.ID = 0
	r.s.insertOrder(order, details)
	return nil
}

func (r *orderRepo) FindByID(_ context.Context, id int64) (*entity.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.orders[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (r *orderRepo) FindDetails(_ context.Context, orderID int64) ([]*entity.OrderDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.OrderDetail
	for _, d := range r.s.details[orderID] {
		c := *d
		out = append(out, &c)
	}
	return out, nil
}

func (r *orderRepo) ClaimIssuance(_ context.Context, orderID, paymentID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok || o.IssuedPaymentID != nil {
		return false, nil
	}
	id := paymentID
	o.IssuedPaymentID = &id
	o.UpdatedAt = time.Now()
	return true, nil
}

// ==================== PAYMENTS ====================

type paymentRepo struct{ s *Store }

func (r *paymentRepo) CreatePayment(_ context.Context, orderID int64, amount decimal.Decimal, method entity.PaymentMethod) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	p := &entity.Payment{
		Timestamps: entity.Timestamps{CreatedAt: now, UpdatedAt: now},
		ID:         r.s.nextID(),
		OrderID:    orderID,
		Amount:     amount,
		Method:     method,
		Status:     entity.PaymentStatusPending,
	}
	p.TransactionID = fmt.Sprintf("TXN-%d", p.ID)
	c := *p
	r.s.payments[p.ID] = &c
	return p, nil
}

func (r *paymentRepo) FindByID(_ context.Context, id int64) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.payments[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r *paymentRepo) FindByOrderID(_ context.Context, orderID int64) ([]*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Payment
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *paymentRepo) UpdateStatus(_ context.Context, paymentID int64, status entity.PaymentStatus, transactionID *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[paymentID]
	if !ok {
		return nil
	}
	p.Status = status
	if transactionID != nil {
		p.TransactionID = *transactionID
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (r *paymentRepo) TransitionStatus(_ context.Context, paymentID int64, from, to entity.PaymentStatus, transactionID *string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[paymentID]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if transactionID != nil {
		p.TransactionID = *transactionID
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

// ==================== TICKETS ====================

type ticketRepo struct{ s *Store }

func (s *Store) sortedTickets() []*entity.Ticket {
	out := make([]*entity.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *ticketRepo) CountSold(_ context.Context, ticketTypeIDs []int64) (map[int64]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[int64]bool, len(ticketTypeIDs))
	for _, id := range ticketTypeIDs {
		want[id] = true
	}
	sold := make(map[int64]int, len(ticketTypeIDs))
	for _, t := range r.s.tickets {
		if want[t.TicketTypeID] && (t.Status == entity.TicketStatusActive || t.Status == entity.TicketStatusUsed) {
			sold[t.TicketTypeID]++
		}
	}
	return sold, nil
}

func (r *ticketRepo) CreateBatch(_ context.Context, tickets []*entity.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	codes := make(map[string]bool, len(r.s.tickets))
	for _, t := range r.s.tickets {
		codes[t.TicketCode] = true
	}
	for _, t := range tickets {
		if codes[t.TicketCode] {
			return fmt.Errorf("create ticket %s: duplicate key", t.TicketCode)
		}
		codes[t.TicketCode] = true
	}
	for _, t := range tickets {
		t.ID = r.s.nextID()
		c := *t
		r.s.tickets[t.ID] = &c
	}
	return nil
}

func (r *ticketRepo) FindByID(_ context.Context, id int64) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tickets[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (r *ticketRepo) FindByQR(_ context.Context, token string) (*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.tickets {
		if t.QRData != nil && *t.QRData == token {
			c := *t
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ticketRepo) FindByOrderID(_ context.Context, orderID int64) ([]*entity.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Ticket
	for _, t := range r.s.sortedTickets() {
		if t.OrderID == orderID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *ticketRepo) ListByCustomer(_ context.Context, customerID uuid.UUID, filter repository.TicketFilter) ([]*entity.Ticket, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(filter.Query))

	var matched []*entity.Ticket
	for _, t := range r.s.sortedTickets() {
		o, ok := r.s.orders[t.OrderID]
		if !ok || o.CustomerID != customerID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.TicketCode), q) {
			continue
		}
		matched = append(matched, t)
	}
	// newest first
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	start := min(filter.Offset, len(matched))
	end := len(matched)
	if filter.Limit > 0 {
		end = min(start+filter.Limit, len(matched))
	}

	out := make([]*entity.Ticket, 0, end-start)
	for _, t := range matched[start:end] {
		c := *t
		out = append(out, &c)
	}
	return out, total, nil
}

func (r *ticketRepo) SetQR(_ context.Context, id int64, token string, issuedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok || t.QRData != nil {
		return false, nil
	}
	for _, other := range r.s.tickets {
		if other.QRData != nil && *other.QRData == token {
			return false, fmt.Errorf("set qr of ticket %d: duplicate key", id)
		}
	}
	tok := token
	at := issuedAt
	t.QRData = &tok
	t.IssuedAt = &at
	return true, nil
}

func (r *ticketRepo) MarkUsed(_ context.Context, id int64, usedAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok || t.Status != entity.TicketStatusActive {
		return false, nil
	}
	at := usedAt
	t.Status = entity.TicketStatusUsed
	t.UsedAt = &at
	return true, nil
}
