package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hallatan/mockvox/config"
	"github.com/hallatan/mockvox/internal/api/handlers"
	"github.com/hallatan/mockvox/internal/api/middleware"
	"github.com/hallatan/mockvox/internal/api/routes"
	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/logger"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
	"github.com/hallatan/mockvox/internal/providers/stt"
	"github.com/hallatan/mockvox/internal/providers/tts"
	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/store"
)

// Serverless entrypoint. Sessions must live in Redis here: invocations do
// not share process memory, and the container can be frozen between them.
// For the same reason there is no archive worker in this mode.
func main() {
	log := logger.New()
	ctx := context.Background()

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("redis init failed (REDIS_ADDR is required in lambda mode)")
	}
	sessions := store.NewRedisStore(config.RedisClient, store.DefaultTTL)

	provider := buildLLMProvider(ctx, log)

	sttProvider, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.WithError(err).Fatal("speech-to-text init failed")
	}

	ttsKey := os.Getenv("ELEVENLABS_API_KEY")
	if ttsKey == "" {
		log.Fatal("ELEVENLABS_API_KEY is not set")
	}
	eleven := tts.NewElevenLabs(tts.ElevenLabsConfig{
		APIKey: ttsKey,
		Voice:  os.Getenv("ELEVENLABS_VOICE_ID"),
	})
	ttsProvider := tts.NewCachedProvider(eleven, config.RedisClient, eleven.Voice(), log)

	m := metrics.NewInterviewMetrics(nil)
	engine := interview.NewEngine(interview.EngineConfig{})
	locks := services.NewSessionLocks()

	sessionSvc := services.NewSessionService(sessions, locks, "redis", m)
	interviewSvc := services.NewInterviewService(sessions, engine, provider, locks, m)
	reportSvc := services.NewReportService(sessions, provider, locks, m, nil)
	speechSvc := services.NewSpeechService(sttProvider, ttsProvider, m)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessionSvc, reportSvc),
		Chat:    handlers.NewChatHandler(interviewSvc),
		Speech:  handlers.NewSpeechHandler(speechSvc),
		Admin:   handlers.NewAdminHandler(sessionSvc),
		Archive: handlers.NewArchiveHandler(nil),
		WS:      handlers.NewWSHandler(interviewSvc, sessionSvc),
	})

	lambda.Start(ginHandler(r))
}

func buildLLMProvider(ctx context.Context, log *logrus.Logger) llm.Provider {
	switch name := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))); name {
	case "", "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			log.Fatal("OPENAI_API_KEY is not set")
		}
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:  key,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		})
	case "vertex":
		p, err := llm.NewVertexGemini(ctx, os.Getenv("GCP_PROJECT_ID"), os.Getenv("GCP_LOCATION"), os.Getenv("VERTEX_MODEL"))
		if err != nil {
			log.WithError(err).Fatal("vertex init failed")
		}
		return p
	default:
		log.Fatalf("unknown LLM_PROVIDER %q", name)
		return nil
	}
}

// ginHandler replays an API Gateway v2 event through the router and packs
// the recorded response back into an event. Binary bodies go out base64.
func ginHandler(r *gin.Engine) func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	return func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		body, err := decodeBody(evt)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
		}

		path := evt.RawPath
		if path == "" {
			path = evt.RequestContext.HTTP.Path
		}
		target := path
		if evt.RawQueryString != "" {
			target += "?" + evt.RawQueryString
		}

		method := evt.RequestContext.HTTP.Method
		if method == "" {
			method = http.MethodGet
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}, nil
		}
		for k, v := range evt.Headers {
			req.Header.Set(k, v)
		}
		if ip := evt.RequestContext.HTTP.SourceIP; ip != "" {
			req.RemoteAddr = ip + ":0"
		}

		w := &eventResponseWriter{status: http.StatusOK, header: http.Header{}}
		r.ServeHTTP(w, req)
		return w.event(), nil
	}
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

type eventResponseWriter struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (w *eventResponseWriter) Header() http.Header         { return w.header }
func (w *eventResponseWriter) WriteHeader(code int)        { w.status = code }
func (w *eventResponseWriter) Write(b []byte) (int, error) { return w.body.Write(b) }

func (w *eventResponseWriter) event() events.APIGatewayV2HTTPResponse {
	headers := make(map[string]string, len(w.header))
	for k, vs := range w.header {
		if len(vs) > 0 {
			headers[k] = vs[len(vs)-1]
		}
	}

	if textualContentType(w.header.Get("Content-Type")) {
		return events.APIGatewayV2HTTPResponse{StatusCode: w.status, Headers: headers, Body: w.body.String()}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode:      w.status,
		Headers:         headers,
		Body:            base64.StdEncoding.EncodeToString(w.body.Bytes()),
		IsBase64Encoded: true,
	}
}

func textualContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return ct == "" ||
		strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml")
}
