package adaptor

import (
	"encoding/json"
	"fmt"
	"net/http"

	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/gateway"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/middleware"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// Initiate handles POST /api/payments
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	init, err := h.service.Initiate(r.Context(), userID, &req, middleware.ClientIP(r))
	if err != nil {
		handleServiceError(w, h.log, err, "initiate payment")
		return
	}

	utils.ResponseCreated(w, "Payment initiated", init)
}

// Status handles GET /api/payments/{id}/status
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID, ok := pathID(r, "id")
	if !ok {
		utils.ResponseBadRequest(w, "Invalid payment ID", nil)
		return
	}

	status, err := h.service.Status(r.Context(), userID, paymentID)
	if err != nil {
		handleServiceError(w, h.log, err, "get payment status")
		return
	}

	utils.ResponseSuccess(w, status.Message, status)
}

// MoMoIPN handles POST /api/payments/momo/ipn. The reply is always 200 with
// MoMo's own acknowledgement body.
func (h *PaymentHandler) MoMoIPN(w http.ResponseWriter, r *http.Request) {
	params, err := jsonParams(r)
	if err != nil {
		h.log.Warn("MoMo IPN body unreadable", zap.Error(err))
		writeJSON(w, http.StatusOK, gateway.MoMoAck{ResultCode: 99, Message: "Invalid request body"})
		return
	}

	out, err := h.service.HandleNotification(r.Context(), gateway.MoMoName, params)
	if err != nil {
		handleServiceError(w, h.log, err, "momo ipn")
		return
	}

	h.log.Info("MoMo IPN handled",
		zap.Bool("accepted", out.Accepted),
		zap.String("reason", string(out.Reason)),
		zap.Int64("payment_id", out.PaymentID),
	)
	writeJSON(w, http.StatusOK, out.Ack)
}

// VNPayIPN handles GET and POST /api/payments/vnpay/ipn.
func (h *PaymentHandler) VNPayIPN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusOK, gateway.VNPayAck{RspCode: "99", Message: "Invalid request"})
		return
	}

	out, err := h.service.HandleNotification(r.Context(), gateway.VNPayName, gateway.QueryParams(r.Form))
	if err != nil {
		handleServiceError(w, h.log, err, "vnpay ipn")
		return
	}

	h.log.Info("VNPay IPN handled",
		zap.Bool("accepted", out.Accepted),
		zap.String("reason", string(out.Reason)),
		zap.Int64("payment_id", out.PaymentID),
	)
	writeJSON(w, http.StatusOK, out.Ack)
}

// MoMoReturn handles GET /api/payments/momo/return
func (h *PaymentHandler) MoMoReturn(w http.ResponseWriter, r *http.Request) {
	h.browserReturn(w, r, gateway.MoMoName)
}

// VNPayReturn handles GET /api/payments/vnpay/return
func (h *PaymentHandler) VNPayReturn(w http.ResponseWriter, r *http.Request) {
	h.browserReturn(w, r, gateway.VNPayName)
}

func (h *PaymentHandler) browserReturn(w http.ResponseWriter, r *http.Request, name string) {
	info, err := h.service.HandleReturn(r.Context(), name, gateway.QueryParams(r.URL.Query()))
	if err != nil {
		handleServiceError(w, h.log, err, name+" return")
		return
	}

	if !info.Verified {
		utils.ResponseJSON(w, http.StatusBadRequest, false, info.Message, info, nil)
		return
	}

	message := "Payment is being processed"
	if info.LedgerStatus != "" {
		message = fmt.Sprintf("Payment status: %s", info.LedgerStatus)
	}
	utils.ResponseSuccess(w, message, info)
}

// jsonParams flattens a JSON object body into string values, keeping numbers
// in their literal form so signatures recompute byte-for-byte.
func jsonParams(r *http.Request) (map[string]string, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	params := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			params[k] = ""
		case string:
			params[k] = val
		case json.Number:
			params[k] = val.String()
		default:
			params[k] = fmt.Sprint(val)
		}
	}
	return params, nil
}
