package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/utils"
)

type WSHandler struct {
	interviews services.InterviewService
	sessions   services.SessionService
	upgrader   websocket.Upgrader
}

func NewWSHandler(interviews services.InterviewService, sessions services.SessionService) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		sessions:   sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type      string               `json:"type"`
	SessionID string               `json:"sessionId"`
	Messages  []models.ChatMessage `json:"messages"`
}

type wsQuestionMsg struct {
	Type          string `json:"type"`
	Content       string `json:"content"`
	QuestionCount int    `json:"questionCount"`
	CurrentTopic  string `json:"currentTopic"`
}

type wsErrorMsg struct {
	Type    string     `json:"type"`
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// InterviewWS drives a turn-based interview over a single socket. Each
// "turn" message yields exactly one reply, either a question or an error.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeJSON(wsErrorMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "invalid json"})
			continue
		}

		switch msg.Type {
		case "turn":
			h.handleTurn(ctx, wc, msg)

		case "end":
			if err := h.sessions.Delete(ctx, msg.SessionID); err != nil {
				_ = wc.writeJSON(wsAppError(err))
				continue
			}
			_ = wc.writeJSON(gin.H{"type": "ended"})
			return

		default:
			_ = wc.writeJSON(wsErrorMsg{Type: "error", Code: utils.CodeInvalidArgument, Message: "unknown message type"})
		}
	}
}

func (h *WSHandler) handleTurn(ctx context.Context, wc *wsConn, msg wsClientMsg) {
	out, err := h.interviews.NextQuestion(ctx, msg.SessionID, msg.Messages)
	if err != nil {
		_ = wc.writeJSON(wsAppError(err))
		return
	}

	reply := wsQuestionMsg{Type: "question", Content: out.Choices[0].Message.Content}
	if sess, gerr := h.sessions.Get(ctx, msg.SessionID); gerr == nil {
		reply.QuestionCount = sess.State.QuestionCount
		reply.CurrentTopic = sess.State.CurrentTopic
	}

	_ = wc.writeJSON(reply)
}

func wsAppError(err error) wsErrorMsg {
	var ae *utils.AppError
	if errors.As(err, &ae) {
		return wsErrorMsg{Type: "error", Code: ae.Code, Message: ae.Message}
	}
	return wsErrorMsg{Type: "error", Code: utils.CodeInternal, Message: "internal error"}
}
