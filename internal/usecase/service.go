package usecase

import (
	"net/http"

	"event-ticketing/internal/data/repository"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/messaging"
	"event-ticketing/pkg/qrtoken"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	User     UserService
	Order    OrderService
	Payment  PaymentService
	Issuance IssuanceService
	CheckIn  CheckInService
}

// Dependencies are the collaborators built outside the service layer.
type Dependencies struct {
	Events     messaging.Publisher
	QR         *qrtoken.Codec
	HTTPClient *http.Client
}

func NewService(repo *repository.Repository, config *utils.Config, deps Dependencies, log *zap.Logger) *Service {
	issuance := NewIssuanceService(repo, log)
	reconciler := gateway.NewReconciler(repo, issuance, deps.Events, log)
	registry := gateway.NewRegistry(
		gateway.NewMoMo(config.MoMo, reconciler, deps.HTTPClient, log),
		gateway.NewVNPay(config.VNPay, reconciler, log),
	)

	return &Service{
		Auth:     NewAuthService(repo, config, log),
		User:     NewUserService(repo.User, log),
		Order:    NewOrderService(repo, log),
		Payment:  NewPaymentService(repo, registry, log),
		Issuance: issuance,
		CheckIn:  NewCheckInService(repo, deps.QR, log),
	}
}
