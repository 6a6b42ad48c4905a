package adaptor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"event-ticketing/internal/dto/request"
	"event-ticketing/internal/usecase"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type TicketHandler struct {
	service usecase.CheckInService
	log     *zap.Logger
}

func NewTicketHandler(service usecase.CheckInService, log *zap.Logger) *TicketHandler {
	return &TicketHandler{
		service: service,
		log:     log.With(zap.String("handler", "ticket")),
	}
}

// IssueQR handles POST /api/qr/issue/{ticket_id}
func (h *TicketHandler) IssueQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	ticketID, ok := pathID(r, "ticket_id")
	if !ok {
		utils.ResponseBadRequest(w, "Invalid ticket ID", nil)
		return
	}

	qr, err := h.service.IssueQRForOwner(r.Context(), userID, ticketID)
	if err != nil {
		handleServiceError(w, h.log, err, "issue qr")
		return
	}

	utils.ResponseSuccess(w, "QR issued", qr)
}

// QRImage handles GET /api/qr/{ticket_id}/image
func (h *TicketHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	ticketID, ok := pathID(r, "ticket_id")
	if !ok {
		utils.ResponseBadRequest(w, "Invalid ticket ID", nil)
		return
	}

	png, err := h.service.QRImage(r.Context(), userID, ticketID, utils.ParseInt(r.URL.Query().Get("size"), 256))
	if err != nil {
		handleServiceError(w, h.log, err, "render qr")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Validate handles POST /api/qr/validate. A repeat scan is a 200 with
// already_checked_in, not an error.
func (h *TicketHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req request.ValidateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.ValidateAndCheckIn(r.Context(), req.QR, req.EventID)
	if err != nil {
		handleServiceError(w, h.log, err, "validate qr")
		return
	}

	if result.AlreadyCheckedIn {
		utils.ResponseSuccess(w, "already_checked_in", result)
		return
	}
	utils.ResponseSuccess(w, "checked_in", result)
}
