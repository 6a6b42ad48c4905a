package usecase

import (
	"context"
	"fmt"
	"time"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/dto/response"
	"event-ticketing/pkg/qrtoken"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	CodeMissingQROrEvent = "missing_qr_or_event"
	CodeInvalidQR        = "invalid_qr"
	CodeTicketNotFound   = "ticket_not_found"
	CodeWrongEvent       = "wrong_event"
	CodeInvalidState     = "invalid_state"
)

type CheckInService interface {
	// IssueQR returns the ticket's signed token, minting it on first use.
	IssueQR(ctx context.Context, ticketID int64) (*response.QRResponse, error)
	IssueQRForOwner(ctx context.Context, userID uuid.UUID, ticketID int64) (*response.QRResponse, error)
	QRImage(ctx context.Context, userID uuid.UUID, ticketID int64, size int) ([]byte, error)

	// ValidateAndCheckIn admits a ticket once. A repeat scan reports
	// AlreadyCheckedIn with the original time instead of failing.
	ValidateAndCheckIn(ctx context.Context, token string, eventID int64) (*response.CheckInResponse, error)
}

type checkInService struct {
	repo  *repository.Repository
	codec *qrtoken.Codec
	now   func() time.Time
	log   *zap.Logger
}

func NewCheckInService(repo *repository.Repository, codec *qrtoken.Codec, log *zap.Logger) CheckInService {
	return &checkInService{
		repo:  repo,
		codec: codec,
		now:   time.Now,
		log:   log.With(zap.String("service", "checkin")),
	}
}

func (s *checkInService) IssueQR(ctx context.Context, ticketID int64) (*response.QRResponse, error) {
	ticket, err := s.repo.Ticket.FindByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket")
	}
	if ticket == nil {
		return nil, apperr.NotFound(CodeTicketNotFound, "ticket not found")
	}
	return s.issue(ctx, ticket)
}

func (s *checkInService) IssueQRForOwner(ctx context.Context, userID uuid.UUID, ticketID int64) (*response.QRResponse, error) {
	ticket, err := s.ownedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, ticket)
}

func (s *checkInService) QRImage(ctx context.Context, userID uuid.UUID, ticketID int64, size int) ([]byte, error) {
	qr, err := s.IssueQRForOwner(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}

	if size < 128 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(qr.QR, qrcode.Medium, size)
	if err != nil {
		s.log.Error("Failed to render QR image", zap.Error(err), zap.Int64("ticket_id", ticketID))
		return nil, fmt.Errorf("failed to render qr image")
	}
	return png, nil
}

func (s *checkInService) issue(ctx context.Context, ticket *entity.Ticket) (*response.QRResponse, error) {
	if ticket.QRData != nil {
		return &response.QRResponse{TicketID: ticket.ID, QR: *ticket.QRData, IssuedAt: ticket.IssuedAt}, nil
	}

	token, err := s.codec.SignClaims(qrtoken.Claims{
		TicketID: ticket.ID,
		OrderID:  ticket.OrderID,
		EventID:  ticket.EventID,
	})
	if err != nil {
		s.log.Error("Failed to sign QR", zap.Error(err), zap.Int64("ticket_id", ticket.ID))
		return nil, fmt.Errorf("failed to issue qr")
	}

	issuedAt := s.now()
	stored, err := s.repo.Ticket.SetQR(ctx, ticket.ID, token, issuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save qr")
	}
	if !stored {
		// Another request minted it first; its token wins
		current, err := s.repo.Ticket.FindByID(ctx, ticket.ID)
		if err != nil || current == nil || current.QRData == nil {
			return nil, fmt.Errorf("failed to load qr")
		}
		return &response.QRResponse{TicketID: current.ID, QR: *current.QRData, IssuedAt: current.IssuedAt}, nil
	}

	s.log.Info("QR issued", zap.Int64("ticket_id", ticket.ID))
	return &response.QRResponse{TicketID: ticket.ID, QR: token, IssuedAt: &issuedAt}, nil
}

func (s *checkInService) ValidateAndCheckIn(ctx context.Context, token string, eventID int64) (*response.CheckInResponse, error) {
	if token == "" || eventID <= 0 {
		return nil, apperr.InvalidInput(CodeMissingQROrEvent, "qr and event_id are required")
	}

	claims, res := s.codec.VerifyClaims(token)
	if !res.Valid {
		s.log.Warn("QR rejected", zap.String("reason", res.Message), zap.Int64("event_id", eventID))
		return nil, apperr.InvalidInput(CodeInvalidQR, res.Message)
	}

	ticket, err := s.repo.Ticket.FindByQR(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket")
	}
	if ticket == nil || ticket.ID != claims.TicketID {
		return nil, apperr.NotFound(CodeTicketNotFound, "ticket not found")
	}

	if ticket.EventID != eventID {
		s.log.Warn("QR scanned at wrong event",
			zap.Int64("ticket_id", ticket.ID),
			zap.Int64("ticket_event_id", ticket.EventID),
			zap.Int64("scanned_event_id", eventID),
		)
		return nil, apperr.InvalidInput(CodeWrongEvent, "ticket belongs to another event")
	}

	switch ticket.Status {
	case entity.TicketStatusUsed:
		return alreadyCheckedIn(ticket), nil
	case entity.TicketStatusActive:
	default:
		return nil, apperr.InvalidState(CodeInvalidState, fmt.Sprintf("ticket is %s", ticket.Status))
	}

	usedAt := s.now()
	moved, err := s.repo.Ticket.MarkUsed(ctx, ticket.ID, usedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to check in")
	}
	if !moved {
		// Lost a race with another scanner
		current, err := s.repo.Ticket.FindByID(ctx, ticket.ID)
		if err != nil || current == nil {
			return nil, fmt.Errorf("failed to reload ticket")
		}
		if current.Status == entity.TicketStatusUsed {
			return alreadyCheckedIn(current), nil
		}
		return nil, apperr.InvalidState(CodeInvalidState, fmt.Sprintf("ticket is %s", current.Status))
	}

	resp := &response.CheckInResponse{
		TicketID:    ticket.ID,
		TicketCode:  ticket.TicketCode,
		EventID:     ticket.EventID,
		CheckedInAt: usedAt,
	}
	s.attachSummary(ctx, ticket, resp)

	s.log.Info("Ticket checked in",
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("event_id", eventID),
	)
	return resp, nil
}

func alreadyCheckedIn(t *entity.Ticket) *response.CheckInResponse {
	resp := &response.CheckInResponse{
		AlreadyCheckedIn: true,
		TicketID:         t.ID,
		TicketCode:       t.TicketCode,
		EventID:          t.EventID,
	}
	if t.UsedAt != nil {
		resp.CheckedInAt = *t.UsedAt
	}
	return resp
}

// attachSummary adds ticket type and buyer details; lookup failures leave them empty.
func (s *checkInService) attachSummary(ctx context.Context, t *entity.Ticket, resp *response.CheckInResponse) {
	if types, err := s.repo.TicketType.FindByIDs(ctx, []int64{t.TicketTypeID}); err == nil && len(types) == 1 {
		resp.TicketType = types[0].Name
	}

	order, err := s.repo.Order.FindByID(ctx, t.OrderID)
	if err != nil || order == nil {
		return
	}
	user, err := s.repo.User.FindByID(ctx, order.CustomerID)
	if err != nil || user == nil {
		return
	}
	resp.Buyer = &response.BuyerSummary{Username: user.Username, Email: user.Email}
}

func (s *checkInService) ownedTicket(ctx context.Context, userID uuid.UUID, ticketID int64) (*entity.Ticket, error) {
	ticket, err := s.repo.Ticket.FindByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket")
	}
	if ticket == nil {
		return nil, apperr.NotFound(CodeTicketNotFound, "ticket not found")
	}

	order, err := s.repo.Order.FindByID(ctx, ticket.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order")
	}
	if order == nil || order.CustomerID != userID {
		s.log.Warn("QR access denied", zap.Int64("ticket_id", ticketID), zap.String("user_id", userID.String()))
		return nil, apperr.AccessDenied("you do not own this ticket")
	}
	return ticket, nil
}
