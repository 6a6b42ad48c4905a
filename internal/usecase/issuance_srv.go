package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

// IssuanceService mints tickets for a paid order, all or nothing.
type IssuanceService interface {
	IssueTickets(ctx context.Context, orderID, paymentID int64) ([]*entity.Ticket, error)

	// IssueTicketsTx runs inside the caller's transaction.
	IssueTicketsTx(ctx context.Context, tx *repository.Repository, orderID, paymentID int64) ([]*entity.Ticket, error)
}

type issuanceService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewIssuanceService(repo *repository.Repository, log *zap.Logger) IssuanceService {
	return &issuanceService{
		repo: repo,
		log:  log.With(zap.String("service", "issuance")),
	}
}

func (s *issuanceService) IssueTickets(ctx context.Context, orderID, paymentID int64) ([]*entity.Ticket, error) {
	var tickets []*entity.Ticket
	err := s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		var err error
		tickets, err = s.IssueTicketsTx(ctx, tx, orderID, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *issuanceService) IssueTicketsTx(ctx context.Context, tx *repository.Repository, orderID, paymentID int64) ([]*entity.Ticket, error) {
	log := s.log.With(zap.Int64("order_id", orderID), zap.Int64("payment_id", paymentID))

	details, err := tx.Order.FindDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		log.Info("Order has no details, nothing to issue")
		return nil, nil
	}

	// Quantities per ticket type; one type may appear on several lines
	requested := make(map[int64]int, len(details))
	for _, d := range details {
		requested[d.TicketTypeID] += d.Quantity
	}
	typeIDs := make([]int64, 0, len(requested))
	for id := range requested {
		typeIDs = append(typeIDs, id)
	}
	sort.Slice(typeIDs, func(i, j int) bool { return typeIDs[i] < typeIDs[j] })

	// Serialises issuance per ticket type until commit
	types, err := tx.TicketType.LockByIDs(ctx, typeIDs)
	if err != nil {
		return nil, err
	}
	typeByID := make(map[int64]*entity.TicketType, len(types))
	for _, t := range types {
		typeByID[t.ID] = t
	}

	order, err := tx.Order.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, apperr.NotFound("order_not_found", fmt.Sprintf("order %d not found", orderID))
	}
	if order.IssuedPaymentID != nil {
		if *order.IssuedPaymentID == paymentID {
			log.Info("Tickets already issued for this payment")
			return tx.Ticket.FindByOrderID(ctx, orderID)
		}
		log.Warn("Order already issued by another payment", zap.Int64("issued_payment_id", *order.IssuedPaymentID))
		return nil, apperr.New(apperr.KindConflict, "order_already_issued", "order already fulfilled by another payment")
	}

	sold, err := tx.Ticket.CountSold(ctx, typeIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range typeIDs {
		tt, ok := typeByID[id]
		if !ok {
			return nil, apperr.NotFound("ticket_type_not_found", fmt.Sprintf("ticket type %d not found", id))
		}
		if remaining := tt.Remaining(sold[id]); requested[id] > remaining {
			log.Error("Oversold at issuance",
				zap.Int64("ticket_type_id", id),
				zap.Int("requested", requested[id]),
				zap.Int("remaining", remaining),
			)
			return nil, apperr.New(apperr.KindOversold, "oversold",
				fmt.Sprintf("ticket type %q has %d left, %d requested", tt.Name, remaining, requested[id]))
		}
	}

	claimed, err := tx.Order.ClaimIssuance(ctx, orderID, paymentID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, apperr.New(apperr.KindConflict, "order_already_issued", "order already fulfilled by another payment")
	}

	now := time.Now()
	tickets := make([]*entity.Ticket, 0, len(details))
	for _, d := range details {
		tt := typeByID[d.TicketTypeID]
		for i := 0; i < d.Quantity; i++ {
			tickets = append(tickets, &entity.Ticket{
				TicketCode:   utils.GenerateTicketCode(),
				Status:       entity.TicketStatusActive,
				OrderID:      orderID,
				TicketTypeID: d.TicketTypeID,
				EventID:      tt.EventID,
				CreatedAt:    now,
			})
		}
	}

	if err := tx.Ticket.CreateBatch(ctx, tickets); err != nil {
		return nil, err
	}

	log.Info("Tickets issued", zap.Int("count", len(tickets)))
	return tickets, nil
}
