package wire

import (
	"time"

	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/data/repository"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireTicket(
	r chi.Router,
	ticketHandler *adaptor.TicketHandler,
	repo *repository.Repository,
	config *utils.Config,
	limiter middleware.Counter,
	log *zap.Logger,
) {
	r.Route("/api/qr", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// Ticket owner
		r.Post("/issue/{ticket_id}", ticketHandler.IssueQR)
		r.Get("/{ticket_id}/image", ticketHandler.QRImage)

		// Door staff
		r.With(
			middleware.Role(log, entity.RoleOrganizer, entity.RoleAdmin),
			middleware.RateLimit(limiter, "qr-validate", config.Redis.RateLimitPerMin, time.Minute, log),
		).Post("/validate", ticketHandler.Validate)
	})
}
