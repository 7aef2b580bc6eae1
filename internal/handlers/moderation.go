package handlers

import (
	"net/http"

	"dilemmas/internal/middleware"
	"dilemmas/internal/services"

	"github.com/gin-gonic/gin"
)

type ModerationHandler struct {
	moderation *services.ModerationService
}

func NewModerationHandler(moderation *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

type denounceRequest struct {
	Reason string `json:"reason"`
}

// Denounce flags a dilemma. The body, and the reason in it, are optional.
func (h *ModerationHandler) Denounce(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req denounceRequest
	if !bindJSON(c, &req, true) {
		return
	}

	result, err := h.moderation.Denounce(c.Request.Context(), id, middleware.CurrentPrincipal(c).UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "denunciation recorded"
	if result.DilemmaDeactivated {
		message = "denunciation recorded; dilemma deactivated"
	}
	respond(c, http.StatusOK, message, result)
}

func (h *ModerationHandler) ListDenounced(c *gin.Context) {
	dilemmas, err := h.moderation.ListDenounced(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", dilemmas)
}

func (h *ModerationHandler) ListDenunciations(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	denunciations, err := h.moderation.ListDenunciations(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", denunciations)
}
