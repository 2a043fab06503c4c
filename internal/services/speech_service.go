package services

import (
	"context"
	"strings"
	"time"

	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/stt"
	"github.com/hallatan/mockvox/internal/providers/tts"
	"github.com/hallatan/mockvox/internal/utils"
)

const speechTimeout = 30 * time.Second

// Transcription is the speech-to-text outcome plus the gateway's own
// quality signals.
type Transcription struct {
	Text       string
	Confidence float64
	WordCount  int
}

type SpeechService interface {
	Transcribe(ctx context.Context, audio []byte, language string) (*Transcription, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type speechService struct {
	stt     stt.Provider
	tts     tts.Provider
	metrics *metrics.InterviewMetrics
}

func NewSpeechService(sttp stt.Provider, ttsp tts.Provider, m *metrics.InterviewMetrics) SpeechService {
	return &speechService{stt: sttp, tts: ttsp, metrics: m}
}

func (s *speechService) Transcribe(ctx context.Context, audio []byte, language string) (*Transcription, error) {
	const op = "SpeechService.Transcribe"

	if len(audio) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "audio is required", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, speechTimeout)
	defer cancel()

	start := time.Now()
	text, confidence, err := s.stt.Transcribe(callCtx, audio, language)
	s.metrics.ObserveGatewayLatency("stt", time.Since(start).Seconds())
	if err != nil {
		s.metrics.ObserveGatewayFailure("stt")
		return nil, utils.E(utils.CodeUpstream, op, "transcription failed", err)
	}

	return &Transcription{
		Text:       text,
		Confidence: confidence,
		WordCount:  len(strings.Fields(text)),
	}, nil
}

func (s *speechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	const op = "SpeechService.Synthesize"

	if strings.TrimSpace(text) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, speechTimeout)
	defer cancel()

	start := time.Now()
	audio, err := s.tts.Synthesize(callCtx, text)
	s.metrics.ObserveGatewayLatency("tts", time.Since(start).Seconds())
	if err != nil {
		s.metrics.ObserveGatewayFailure("tts")
		return nil, utils.E(utils.CodeUpstream, op, "speech synthesis failed", err)
	}
	return audio, nil
}
