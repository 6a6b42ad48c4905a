package gateway

import (
	"context"
	"fmt"
	"time"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/messaging"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Issuer mints tickets for a paid order inside the caller's transaction.
type Issuer interface {
	IssueTicketsTx(ctx context.Context, tx *repository.Repository, orderID, paymentID int64) ([]*entity.Ticket, error)
}

// Notification is a signature-verified callback reduced to the fields reconciliation needs.
type Notification struct {
	Gateway       string
	Correlation   string
	Success       bool

	// RawAmount is the amount text as signed by the gateway. It is parsed
	// only after the correlation and lookup gates pass, then divided by
	// AmountDivisor when that is set.
	RawAmount     string
	AmountDivisor decimal.Decimal
	TransactionID string
}

// Reconciler owns the gates shared by every adapter: correlation, lookup,
// amount, guarded ledger write and fulfilment.
type Reconciler struct {
	repo   *repository.Repository
	issuer Issuer
	events messaging.Publisher
	log    *zap.Logger
}

func NewReconciler(repo *repository.Repository, issuer Issuer, events messaging.Publisher, log *zap.Logger) *Reconciler {
	if events == nil {
		events = messaging.Noop{}
	}
	return &Reconciler{
		repo:   repo,
		issuer: issuer,
		events: events,
		log:    log.With(zap.String("component", "reconciler")),
	}
}

// OpenPayment loads the order, checks the optional amount hint against the
// order total and records a new PENDING payment for it.
func (r *Reconciler) OpenPayment(ctx context.Context, orderID int64, amountHint *decimal.Decimal, method entity.PaymentMethod) (*entity.Order, *entity.Payment, error) {
	order, err := r.repo.Order.FindByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, apperr.NotFound("order_not_found", "Order not found")
	}

	total := order.TotalAmount
	if amountHint != nil && !amountHint.Equal(total) {
		r.log.Warn("Amount hint does not match order total",
			zap.Int64("order_id", orderID),
			zap.String("hint", amountHint.String()),
			zap.String("total", total.String()),
		)
		return nil, nil, apperr.New(apperr.KindAmountMismatch, "amount_mismatch", "Amount does not match the order")
	}
	if !total.IsPositive() {
		return nil, nil, apperr.InvalidState("nothing_to_pay", "Order total must be positive")
	}
	if !total.IsInteger() {
		return nil, nil, apperr.InvalidState("amount_not_integral", "Order total must be a whole amount")
	}

	payment, err := r.repo.Payment.CreatePayment(ctx, order.ID, total, method)
	if err != nil {
		return nil, nil, err
	}

	return order, payment, nil
}

// FailPayment marks a payment whose gateway hand-off broke as FAILED.
func (r *Reconciler) FailPayment(ctx context.Context, paymentID int64, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := r.repo.Payment.TransitionStatus(ctx, paymentID, entity.PaymentStatusPending, entity.PaymentStatusFailed, nil); err != nil {
		r.log.Error("Failed to mark payment failed", zap.Error(err), zap.Int64("payment_id", paymentID))
		return
	}
	r.log.Warn("Payment marked failed after gateway error", zap.Int64("payment_id", paymentID), zap.Error(cause))
}

// Resolve parses the correlation string and loads the payment and order it names.
func (r *Reconciler) Resolve(ctx context.Context, correlation string) (Correlation, *entity.Payment, *entity.Order, Reason) {
	c, err := ParseCorrelation(correlation)
	if err != nil {
		return Correlation{}, nil, nil, ReasonCorrelation
	}

	payment, err := r.repo.Payment.FindByID(ctx, c.PaymentID)
	if err != nil {
		r.log.Error("Failed to load payment", zap.Error(err), zap.Int64("payment_id", c.PaymentID))
		return c, nil, nil, ReasonInternal
	}
	order, err := r.repo.Order.FindByID(ctx, c.OrderID)
	if err != nil {
		r.log.Error("Failed to load order", zap.Error(err), zap.Int64("order_id", c.OrderID))
		return c, nil, nil, ReasonInternal
	}

	if payment == nil || order == nil || payment.OrderID != order.ID {
		return c, nil, nil, ReasonLookup
	}
	return c, payment, order, ReasonAccepted
}

// Apply runs the correlation, lookup and amount gates, then writes the
// terminal status. Only the write that moves a payment out of PENDING has
// side effects; later deliveries re-assert without touching anything.
func (r *Reconciler) Apply(ctx context.Context, n Notification) Outcome {
	log := r.log.With(zap.String("gateway", n.Gateway), zap.String("correlation", n.Correlation))

	c, payment, order, reason := r.Resolve(ctx, n.Correlation)
	if reason != ReasonAccepted {
		log.Warn("Notification rejected", zap.String("reason", string(reason)))
		return Outcome{Reason: reason, OrderID: c.OrderID, PaymentID: c.PaymentID}
	}

	out := Outcome{OrderID: order.ID, PaymentID: payment.ID}

	amount, err := n.amount()
	if err != nil {
		log.Warn("Notification amount unparseable", zap.Error(err))
		out.Reason = ReasonAmount
		out.Status = payment.Status
		return out
	}
	if !amount.Equal(payment.Amount) {
		log.Warn("Notification amount mismatch",
			zap.String("notified", amount.String()),
			zap.String("expected", payment.Amount.String()),
		)
		out.Reason = ReasonAmount
		out.Status = payment.Status
		return out
	}

	target := entity.PaymentStatusFailed
	if n.Success {
		target = entity.PaymentStatusSuccess
	}

	var txnID *string
	if n.TransactionID != "" {
		txnID = &n.TransactionID
	}

	var (
		moved    bool
		tickets  []*entity.Ticket
		issueErr error
	)
	err = r.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		moved, err = tx.Payment.TransitionStatus(ctx, payment.ID, entity.PaymentStatusPending, target, txnID)
		if err != nil || !moved || target != entity.PaymentStatusSuccess {
			return err
		}

		tickets, issueErr = r.issuer.IssueTicketsTx(ctx, tx, order.ID, payment.ID)
		if issueErr != nil && !isCompensable(issueErr) {
			return issueErr
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to settle payment", zap.Error(err), zap.Int64("payment_id", payment.ID))
		out.Reason = ReasonInternal
		out.Status = payment.Status
		return out
	}

	out.Accepted = true
	out.Reason = ReasonAccepted
	out.Status = target

	if !moved {
		r.reassert(ctx, log, n, payment, target, &out)
		return out
	}

	log.Info("Payment settled",
		zap.Int64("payment_id", payment.ID),
		zap.String("status", string(target)),
		zap.String("transaction_id", n.TransactionID),
	)

	if target != entity.PaymentStatusSuccess {
		return out
	}

	switch {
	case issueErr != nil:
		reason := messaging.RefundReasonOversold
		if apperr.KindOf(issueErr) == apperr.KindConflict {
			reason = messaging.RefundReasonDuplicatePayment
		}
		log.Error("Tickets not issued for successful payment",
			zap.Error(issueErr),
			zap.Int64("order_id", order.ID),
			zap.Int64("payment_id", payment.ID),
			zap.String("refund_reason", reason),
		)
		r.refund(ctx, n, order.ID, payment, reason)
	case len(tickets) > 0:
		ids := make([]int64, 0, len(tickets))
		for _, t := range tickets {
			ids = append(ids, t.ID)
		}
		evt := messaging.TicketsIssued{OrderID: order.ID, PaymentID: payment.ID, TicketIDs: ids, IssuedAt: time.Now().UTC()}
		if err := r.events.PublishTicketsIssued(context.WithoutCancel(ctx), evt); err != nil {
			log.Warn("Failed to publish tickets issued", zap.Error(err))
		}
	}

	return out
}

// reassert handles a delivery for a payment that is no longer PENDING.
func (r *Reconciler) reassert(ctx context.Context, log *zap.Logger, n Notification, before *entity.Payment, target entity.PaymentStatus, out *Outcome) {
	current, err := r.repo.Payment.FindByID(ctx, before.ID)
	if err != nil || current == nil {
		return
	}
	out.Status = current.Status

	if current.Status == target {
		log.Debug("Duplicate notification", zap.Int64("payment_id", current.ID))
		return
	}

	log.Warn("Notification disagrees with terminal payment status",
		zap.Int64("payment_id", current.ID),
		zap.String("current", string(current.Status)),
		zap.String("notified", string(target)),
	)
	if target == entity.PaymentStatusSuccess {
		r.refund(ctx, n, current.OrderID, current, messaging.RefundReasonNotPending)
	}
}

func (r *Reconciler) refund(ctx context.Context, n Notification, orderID int64, payment *entity.Payment, reason string) {
	evt := messaging.RefundRequired{
		OrderID:       orderID,
		PaymentID:     payment.ID,
		Gateway:       n.Gateway,
		TransactionID: n.TransactionID,
		Amount:        payment.Amount.String(),
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
	if err := r.events.PublishRefundRequired(context.WithoutCancel(ctx), evt); err != nil {
		r.log.Error("Failed to publish refund required", zap.Error(err), zap.Int64("payment_id", payment.ID))
	}
}

// isCompensable reports issuance failures that leave the payment settled and
// call for a refund instead of a retry.
func isCompensable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindOversold, apperr.KindConflict:
		return true
	}
	return false
}

func (n Notification) amount() (decimal.Decimal, error) {
	d, err := parseAmount(n.RawAmount)
	if err != nil {
		return decimal.Zero, err
	}
	if !n.AmountDivisor.IsZero() {
		d = d.Div(n.AmountDivisor)
	}
	return d, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	return d, nil
}
