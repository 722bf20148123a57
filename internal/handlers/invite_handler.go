package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Samarth07-ctrl/squadvault/internal/services"
	"github.com/go-chi/chi/v5"
)

type InviteHandler struct {
	service   *services.InviteService
	validator *services.ValidationHelper
}

func NewInviteHandler(service *services.InviteService) *InviteHandler {
	return &InviteHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateInvite issues an invite code and QR image for a pool.
// @Summary Generate a pool invite QR
// @Tags pools
// @Produce json
// @Param appId path string true "On-chain application ID"
// @Success 200 {object} object{inviteCode=string,qrImage=string}
// @Failure 404 {object} services.ErrorResponse
// @Failure 503 {object} services.ErrorResponse
// @Router /pools/{appId}/invite [get]
func (h *InviteHandler) GenerateInvite(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appId")

	code, qrImage, err := h.service.GenerateInvite(r.Context(), appID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			services.SendErrorResponse(w, "Pool not found", http.StatusNotFound, nil)
		case errors.Is(err, services.ErrInvitesUnavailable):
			services.SendErrorResponse(w, "Invites unavailable", http.StatusServiceUnavailable, nil)
		default:
			services.SendErrorResponse(w, "Failed to generate invite", http.StatusInternalServerError, nil)
		}
		return
	}

	services.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"inviteCode": code,
		"qrImage":    qrImage,
	})
}

// ClaimInvite resolves a scanned invite code to its pool.
// @Summary Claim a pool invite
// @Tags pools
// @Accept json
// @Produce json
// @Param request body object{inviteCode=string} true "Invite claim request"
// @Success 200 {object} models.Pool
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /pools/invite/claim [post]
func (h *InviteHandler) ClaimInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"inviteCode" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	pool, err := h.service.ClaimInvite(r.Context(), req.InviteCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			services.SendErrorResponse(w, "Pool not found", http.StatusNotFound, nil)
		case errors.Is(err, services.ErrInvitesUnavailable):
			services.SendErrorResponse(w, "Invites unavailable", http.StatusServiceUnavailable, nil)
		default:
			services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		}
		return
	}

	services.WriteJSON(w, http.StatusOK, pool)
}
