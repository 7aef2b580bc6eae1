package handlers

import (
	"net/http"

	"dilemmas/internal/middleware"
	"dilemmas/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	voting *services.VotingService
}

func NewVoteHandler(voting *services.VotingService) *VoteHandler {
	return &VoteHandler{voting: voting}
}

type voteRequest struct {
	ChosenOption string `json:"chosen_option"`
}

// Respond records the caller's vote and answers with the new statistics.
func (h *VoteHandler) Respond(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req, false) {
		return
	}

	result, err := h.voting.CastVote(c.Request.Context(), id, middleware.CurrentPrincipal(c).UserID, req.ChosenOption)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "vote recorded", result)
}

func (h *VoteHandler) MyResponses(c *gin.Context) {
	responses, err := h.voting.MyResponses(c.Request.Context(), middleware.CurrentPrincipal(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", responses)
}
