package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hallatan/mockvox/internal/api/handlers"
	"github.com/hallatan/mockvox/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	Chat    *handlers.ChatHandler
	Speech  *handlers.SpeechHandler
	Admin   *handlers.AdminHandler
	Archive *handlers.ArchiveHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public interview surface; sessions are bearer-by-id.
	api := r.Group("/api")

	api.POST("/session/init", d.Session.Init)
	api.POST("/session/track", d.Session.Track)
	api.POST("/session/delete", d.Session.Delete)
	api.POST("/session/report", d.Session.Report)

	api.POST("/chat", d.Chat.NextQuestion)
	api.POST("/stt", d.Speech.Transcribe)
	api.POST("/tts", d.Speech.Synthesize)

	// WebSocket
	r.GET("/ws/interview", d.WS.InterviewWS)

	// Protected routes (JWT)
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())

	admin.GET("/sessions", d.Admin.ListSessions)
	admin.GET("/sessions/:session_id", d.Admin.GetSession)
	admin.GET("/archives", d.Archive.ListRecent)
	admin.GET("/archives/:session_id", d.Archive.GetBySession)
}
