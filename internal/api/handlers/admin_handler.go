package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallatan/mockvox/internal/services"
)

type AdminHandler struct {
	sessions services.SessionService
}

func NewAdminHandler(sessions services.SessionService) *AdminHandler {
	return &AdminHandler{sessions: sessions}
}

func (h *AdminHandler) ListSessions(c *gin.Context) {
	out, err := h.sessions.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
}

func (h *AdminHandler) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}
