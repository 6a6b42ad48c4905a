package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Order   *OrderHandler
	Payment *PaymentHandler
	Ticket  *TicketHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Order:   NewOrderHandler(service.Order, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Ticket:  NewTicketHandler(service.CheckIn, log),
	}
}

// handleServiceError maps an apperr kind to the HTTP status and writes the
// envelope. Errors without a kind are logged and hidden behind a 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
		return
	}

	errs := map[string]string{"code": appErr.Code}
	switch appErr.Kind {
	case apperr.KindNotFound:
		log.Warn(operation+" failed - not found", zap.String("code", appErr.Code))
		utils.ResponseJSON(w, http.StatusNotFound, false, appErr.Message, nil, errs)

	case apperr.KindAccessDenied:
		log.Warn(operation+" failed - access denied", zap.String("code", appErr.Code))
		switch appErr.Code {
		case "invalid_credentials":
			utils.ResponseJSON(w, http.StatusUnauthorized, false, appErr.Message, nil, errs)
		default:
			utils.ResponseJSON(w, http.StatusForbidden, false, appErr.Message, nil, errs)
		}

	case apperr.KindAmountMismatch, apperr.KindSignatureInvalid:
		log.Warn(operation+" failed - rejected", zap.String("code", appErr.Code))
		utils.ResponseJSON(w, http.StatusForbidden, false, appErr.Message, nil, errs)

	case apperr.KindInvalidInput, apperr.KindInvalidState:
		log.Warn(operation+" failed - bad request", zap.String("code", appErr.Code))
		utils.ResponseJSON(w, http.StatusBadRequest, false, appErr.Message, nil, errs)

	case apperr.KindConflict, apperr.KindOversold:
		log.Warn(operation+" failed - conflict", zap.String("code", appErr.Code))
		utils.ResponseJSON(w, http.StatusConflict, false, appErr.Message, nil, errs)

	case apperr.KindGateway:
		log.Error(operation+" failed - gateway", zap.Error(err))
		utils.ResponseJSON(w, http.StatusBadGateway, false, appErr.Message, nil, errs)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	return utils.ParseInt64(chi.URLParam(r, name))
}

// writeJSON writes v as-is, for gateway acknowledgements that must not be wrapped.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
