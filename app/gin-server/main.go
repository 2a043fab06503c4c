package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hallatan/mockvox/config"
	"github.com/hallatan/mockvox/internal/api/handlers"
	"github.com/hallatan/mockvox/internal/api/middleware"
	"github.com/hallatan/mockvox/internal/api/routes"
	"github.com/hallatan/mockvox/internal/interview"
	"github.com/hallatan/mockvox/internal/logger"
	"github.com/hallatan/mockvox/internal/models"
	"github.com/hallatan/mockvox/internal/observability/metrics"
	"github.com/hallatan/mockvox/internal/providers/llm"
	"github.com/hallatan/mockvox/internal/providers/stt"
	"github.com/hallatan/mockvox/internal/providers/tts"
	pgrepo "github.com/hallatan/mockvox/internal/repositories/postgres"
	"github.com/hallatan/mockvox/internal/services"
	"github.com/hallatan/mockvox/internal/store"
	"github.com/hallatan/mockvox/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Init Redis (optional: session store backend and synthesis cache)
	if config.RedisConfigured() {
		if err := config.InitRedis(); err != nil {
			log.WithError(err).Fatal("redis init failed")
		}
		log.Info("redis connected")
	}

	sessions, backend := buildSessionStore(log)

	// Init PostgreSQL (optional: completed-interview archive)
	var archiver services.Archiver
	var archiveSvc services.ArchiveService
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if config.PostgresConfigured() {
		if err := config.InitPostgres(); err != nil {
			log.WithError(err).Fatal("postgres init failed")
		}
		if err := config.PostgresDB.AutoMigrate(&models.InterviewArchive{}); err != nil {
			log.WithError(err).Fatal("archive migration failed")
		}
		log.Info("postgres connected")

		repo := pgrepo.NewArchiveRepo(config.PostgresDB)
		archiveSvc = services.NewArchiveService(repo)

		pool := &workers.ArchiveWorkerPool{
			Archive: repo,
			Logger:  log,
		}
		if err := pool.Start(workerCtx); err != nil {
			log.WithError(err).Fatal("archive worker start failed")
		}
		archiver = pool
	}

	provider := buildLLMProvider(ctx, log)
	defer provider.Close()

	sttProvider, err := stt.NewGoogleSpeech(ctx)
	if err != nil {
		log.WithError(err).Fatal("speech-to-text init failed")
	}
	defer sttProvider.Close()

	ttsProvider := buildTTSProvider(log)
	defer ttsProvider.Close()

	m := metrics.NewInterviewMetrics(nil)
	engine := interview.NewEngine(interview.EngineConfig{})
	locks := services.NewSessionLocks()

	sessionSvc := services.NewSessionService(sessions, locks, backend, m)
	interviewSvc := services.NewInterviewService(sessions, engine, provider, locks, m)
	reportSvc := services.NewReportService(sessions, provider, locks, m, archiver)
	speechSvc := services.NewSpeechService(sttProvider, ttsProvider, m)

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		Session: handlers.NewSessionHandler(sessionSvc, reportSvc),
		Chat:    handlers.NewChatHandler(interviewSvc),
		Speech:  handlers.NewSpeechHandler(speechSvc),
		Admin:   handlers.NewAdminHandler(sessionSvc),
		Archive: handlers.NewArchiveHandler(archiveSvc),
		WS:      handlers.NewWSHandler(interviewSvc, sessionSvc),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "session_backend": backend}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}

	// Workers stop after the HTTP drain so in-flight reports still archive.
	stopWorkers()
	log.Info("server stopped")
}

func buildSessionStore(log *logrus.Logger) (store.SessionStore, string) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("SESSION_BACKEND")))
	if backend == "" {
		if config.RedisClient != nil {
			backend = "redis"
		} else {
			backend = "memory"
		}
	}

	switch backend {
	case "redis":
		if config.RedisClient == nil {
			log.Fatal("SESSION_BACKEND=redis requires REDIS_ADDR")
		}
		return store.NewRedisStore(config.RedisClient, store.DefaultTTL), backend
	case "memory":
		return store.NewMemoryStore(store.DefaultTTL), backend
	default:
		log.Fatalf("unknown SESSION_BACKEND %q", backend)
		return nil, backend
	}
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

func buildTTSProvider(log *logrus.Logger) tts.Provider {
	key := os.Getenv("ELEVENLABS_API_KEY")
	if key == "" {
		log.Fatal("ELEVENLABS_API_KEY is not set")
	}

	eleven := tts.NewElevenLabs(tts.ElevenLabsConfig{
		APIKey: key,
		Voice:  os.Getenv("ELEVENLABS_VOICE_ID"),
	})
	if config.RedisClient == nil {
		return eleven
	}
	return tts.NewCachedProvider(eleven, config.RedisClient, eleven.Voice(), log)
}
