package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/utils"
)

type SessionHandler struct {
	sessions services.SessionService
	reports  services.ReportService
}

func NewSessionHandler(sessions services.SessionService, reports services.ReportService) *SessionHandler {
	return &SessionHandler{sessions: sessions, reports: reports}
}

type InitSessionResponse struct {
	SessionID string   `json:"sessionId"`
	Interests []string `json:"interests"`
}

func (h *SessionHandler) Init(c *gin.Context) {
	sess, err := h.sessions.Init(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, InitSessionResponse{
		SessionID: sess.SessionID,
		Interests: sess.Interests,
	})
}

type TrackSessionRequest struct {
	SessionID            string            `json:"sessionId" binding:"required"`
	Metrics              models.TurnMetric `json:"metrics"`
	InterruptionDetected bool              `json:"interruptionDetected"`
}

func (h *SessionHandler) Track(c *gin.Context) {
	var req TrackSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Track", "invalid request body", err))
		return
	}

	if err := h.sessions.Track(c.Request.Context(), req.SessionID, req.Metrics, req.InterruptionDetected); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

type DeleteSessionRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

func (h *SessionHandler) Delete(c *gin.Context) {
	var req DeleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Delete", "sessionId is required", err))
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), req.SessionID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

type ReportSessionRequest struct {
	SessionID           string               `json:"sessionId" binding:"required"`
	ConversationHistory []models.ChatMessage `json:"conversationHistory"`
}

func (h *SessionHandler) Report(c *gin.Context) {
	var req ReportSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Report", "invalid request body", err))
		return
	}

	report, err := h.reports.Generate(c.Request.Context(), req.SessionID, req.ConversationHistory)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
