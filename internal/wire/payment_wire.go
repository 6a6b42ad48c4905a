package wire

import (
	"time"

	"event-ticketing/internal/adaptor"
	"event-ticketing/internal/data/repository"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	config *utils.Config,
	limiter middleware.Counter,
	log *zap.Logger,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// ==================== GATEWAY CALLBACKS ====================
		// Gateways are not logged in; signatures authenticate them
		ipnLimit := middleware.RateLimit(limiter, "ipn", config.Redis.RateLimitPerMin, time.Minute, log)

		r.With(ipnLimit).Post("/momo/ipn", paymentHandler.MoMoIPN)
		r.With(ipnLimit).Get("/vnpay/ipn", paymentHandler.VNPayIPN)
		r.With(ipnLimit).Post("/vnpay/ipn", paymentHandler.VNPayIPN)

		r.Get("/momo/return", paymentHandler.MoMoReturn)
		r.Get("/vnpay/return", paymentHandler.VNPayReturn)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthSession(repo.Session, repo.User, log))

			r.Post("/", paymentHandler.Initiate)
			r.Get("/{id}/status", paymentHandler.Status)
		})
	})
}
