package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/utils"
)

type ChatHandler struct {
	interviews services.InterviewService
}

func NewChatHandler(interviews services.InterviewService) *ChatHandler {
	return &ChatHandler{interviews: interviews}
}

type ChatRequest struct {
	SessionID string               `json:"sessionId" binding:"required"`
	Messages  []models.ChatMessage `json:"messages"`
}

// NextQuestion returns the interviewer's next turn as a chat completion.
func (h *ChatHandler) NextQuestion(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.NextQuestion", "invalid request body", err))
		return
	}

	out, err := h.interviews.NextQuestion(c.Request.Context(), req.SessionID, req.Messages)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
