package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/utils"
)

// ArchiveHandler serves the admin read surface over archived interviews.
// The archive database is optional; without it every route answers 503.
type ArchiveHandler struct {
	archives services.ArchiveService
}

func NewArchiveHandler(archives services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archives: archives}
}

func (h *ArchiveHandler) available(c *gin.Context, op string) bool {
	if h.archives == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "archive database is not configured", nil))
		return false
	}
	return true
}

func (h *ArchiveHandler) ListRecent(c *gin.Context) {
	if !h.available(c, "ArchiveHandler.ListRecent") {
		return
	}

	limit := 20
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	rows, err := h.archives.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"archives": rows, "count": len(rows)})
}

func (h *ArchiveHandler) GetBySession(c *gin.Context) {
	if !h.available(c, "ArchiveHandler.GetBySession") {
		return
	}

	row, err := h.archives.BySession(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}
