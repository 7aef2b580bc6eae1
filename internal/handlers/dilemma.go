package handlers

import (
	"net/http"

	"dilemmas/internal/middleware"
	"dilemmas/internal/services"

	"github.com/gin-gonic/gin"
)

type DilemmaHandler struct {
	dilemmas *services.DilemmaService
}

func NewDilemmaHandler(dilemmas *services.DilemmaService) *DilemmaHandler {
	return &DilemmaHandler{dilemmas: dilemmas}
}

// List returns active dilemmas, optionally filtered by ?category=.
func (h *DilemmaHandler) List(c *gin.Context) {
	dilemmas, err := h.dilemmas.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", dilemmas)
}

// Detail is public; a logged-in caller also sees their own vote and report.
func (h *DilemmaHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.dilemmas.Get(c.Request.Context(), id, middleware.CurrentPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", detail)
}

func (h *DilemmaHandler) Create(c *gin.Context) {
	var req services.DilemmaInput
	if !bindJSON(c, &req, false) {
		return
	}

	d, err := h.dilemmas.Create(c.Request.Context(), middleware.CurrentPrincipal(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "dilemma created", d)
}

func (h *DilemmaHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.DilemmaPatch
	if !bindJSON(c, &req, false) {
		return
	}

	d, err := h.dilemmas.Update(c.Request.Context(), id, middleware.CurrentPrincipal(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "dilemma updated", d)
}

func (h *DilemmaHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.dilemmas.Delete(c.Request.Context(), id, middleware.CurrentPrincipal(c).UserID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "dilemma deleted", nil)
}
