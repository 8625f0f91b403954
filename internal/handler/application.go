package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/leasehub/lease-engine/internal/domain"
	"github.com/leasehub/lease-engine/internal/service"
	"github.com/leasehub/lease-engine/pkg/response"
)

type ApplicationHandler struct {
	service   *service.LeaseService
	validator *validator.Validate
}

func NewApplicationHandler(service *service.LeaseService) *ApplicationHandler {
	return &ApplicationHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Submit accepts a new rental application for an available property.
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var request domain.SubmitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	app, err := h.service.Submit(r.Context(), &request)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, app)
}

// Decide applies an admin approve/reject decision.
func (h *ApplicationHandler) Decide(w http.ResponseWriter, r *http.Request) {
	applicationID, err := uuid.Parse(mux.Vars(r)["applicationId"])
	if err != nil {
		response.BadRequest(w, "invalid application id", err)
		return
	}

	var request domain.ApplicationDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	if err := h.validator.Struct(&request); err != nil {
		response.BadRequest(w, "validation failed", err)
		return
	}

	app, err := h.service.Decide(r.Context(), applicationID, request.Decision, request.Comments, actorFromRequest(r, domain.ActorTypeAdmin))
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, app)
}

// Cancel cancels a pending or approved application. Tenants are blocked
// once the booking deposit is paid; both roles are blocked after move-in.
func (h *ApplicationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	applicationID, err := uuid.Parse(mux.Vars(r)["applicationId"])
	if err != nil {
		response.BadRequest(w, "invalid application id", err)
		return
	}

	var request struct {
		Comments string `json:"comments"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&request)
	}

	if err := h.service.CancelApplication(r.Context(), applicationID, request.Comments, actorFromRequest(r, domain.ActorTypeTenant)); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": "cancelled"})
}

// actorFromRequest builds the audit actor from the gateway-injected
// identity headers, falling back to the endpoint's default role.
func actorFromRequest(r *http.Request, defaultType string) domain.Actor {
	actor := domain.Actor{Type: defaultType}

	if t := r.Header.Get("X-Actor-Type"); t == domain.ActorTypeAdmin || t == domain.ActorTypeTenant {
		actor.Type = t
	}
	if id, err := uuid.Parse(r.Header.Get("X-Actor-Id")); err == nil {
		actor.ID = &id
	}

	return actor
}
