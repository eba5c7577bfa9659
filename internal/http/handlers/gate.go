package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/http/response"
	"github.com/curately/groundtruth-backend/internal/services"
)

type GateHandler struct {
	gate services.GateService
}

func NewGateHandler(gate services.GateService) *GateHandler {
	return &GateHandler{gate: gate}
}

// POST /api/verify
func (h *GateHandler) Verify(c *gin.Context) {
	var body struct {
		Secret string `json:"secret"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if !h.gate.Verify(body.Secret) {
		response.RespondError(c, http.StatusUnauthorized, "verification_failed", errors.New("incorrect secret"))
		return
	}
	token, err := h.gate.IssueToken()
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "token_issue_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"token":      token,
		"expires_in": int(h.gate.SessionTTL().Seconds()),
	})
}
