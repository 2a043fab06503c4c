package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/utils"
)

const maxAudioBytes = 10 << 20

type SpeechHandler struct {
	speech services.SpeechService
}

func NewSpeechHandler(speech services.SpeechService) *SpeechHandler {
	return &SpeechHandler{speech: speech}
}

type TranscriptionMetrics struct {
	Confidence float64 `json:"confidence"`
	WordCount  int     `json:"wordCount"`
}

type TranscribeResponse struct {
	Text    string               `json:"text"`
	Metrics TranscriptionMetrics `json:"metrics"`
}

func (h *SpeechHandler) Transcribe(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SpeechHandler.Transcribe", "missing multipart field 'audio'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SpeechHandler.Transcribe", "audio must be between 1 byte and 10MB", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "SpeechHandler.Transcribe", "failed to open upload", err))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "SpeechHandler.Transcribe", "failed to read upload", err))
		return
	}

	out, err := h.speech.Transcribe(c.Request.Context(), audio, c.PostForm("language"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, TranscribeResponse{
		Text: out.Text,
		Metrics: TranscriptionMetrics{
			Confidence: out.Confidence,
			WordCount:  out.WordCount,
		},
	})
}

type SynthesizeRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *SpeechHandler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SpeechHandler.Synthesize", "text is required", err))
		return
	}

	audio, err := h.speech.Synthesize(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}
