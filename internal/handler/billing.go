package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/service"
	customError "github.com/leasehub/lease-engine/pkg/errors"
	"github.com/leasehub/lease-engine/pkg/response"
)

type BillingHandler struct {
	service   *service.BillingService
	validator *validator.Validate
}

func NewBillingHandler(service *service.BillingService) *BillingHandler {
	return &BillingHandler{
		service:   service,
		validator: validator.New(),
	}
}

// PaymentWebhook receives the gateway's payment-succeeded callback. A
// redelivered event acks with 200 so the gateway stops retrying; a
// concurrent reconciliation of the same invoice acks too, because the
// other path is already handling it.
func (h *BillingHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	event, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}

	payment, err := h.service.ReconcilePayment(r.Context(), event)
	if err != nil {
		if customError.IsDuplicateOperation(err) {
			response.Success(w, map[string]string{"status": "already_processed"})
			return
		}
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payment)
}

// ConfirmPayment is the success-page fallback: after the gateway
// redirect, the frontend posts the payment result here in case the
// webhook has not landed yet. Reconciliation is idempotent, so whichever
// path runs second sees the recorded payment.
func (h *BillingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	event, ok := h.decodeEvent(w, r)
	if !ok {
		return
	}

	payment, err := h.service.ReconcilePayment(r.Context(), event)
	if err != nil {
		if customError.IsDuplicateOperation(err) {
			// The webhook holds the lock; tell the page to poll again.
			response.JSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
			return
		}
		response.BusinessError(w, err)
		return
	}

	response.Success(w, payment)
}

// TenantLedger returns a tenant's ledger entries, newest first.
func (h *BillingHandler) TenantLedger(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(mux.Vars(r)["tenantId"])
	if err != nil {
		response.BadRequest(w, "invalid tenant id", err)
		return
	}

	entries, err := h.service.TenantLedger(r.Context(), tenantID)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, entries)
}

func (h *BillingHandler) decodeEvent(w http.ResponseWriter, r *http.Request) (*domain.PaymentEvent, bool) {
	var event domain.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return nil, false
	}

	if err := h.validator.Struct(&event); err != nil {
		response.BadRequest(w, "validation failed", err)
		return nil, false
	}

	return &event, true
}
