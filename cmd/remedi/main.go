package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/antoniostano/remedi/internal/config"
	"github.com/antoniostano/remedi/internal/conversation"
	"github.com/antoniostano/remedi/internal/httpapi"
	"github.com/antoniostano/remedi/internal/i18n"
	"github.com/antoniostano/remedi/internal/llm"
	"github.com/antoniostano/remedi/internal/monitor"
	"github.com/antoniostano/remedi/internal/notify"
	"github.com/antoniostano/remedi/internal/observability"
	"github.com/antoniostano/remedi/internal/parse"
	"github.com/antoniostano/remedi/internal/reliability"
	"github.com/antoniostano/remedi/internal/reminder"
	"github.com/antoniostano/remedi/internal/transcribe"
)

func main() {
	// .env is a local-dev convenience; missing files are fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	bundle := i18n.NewBundle()

	ctx := context.Background()
	store, err := reminder.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("reminder store init failed: %v", err)
	}
	defer store.Close()

	var adapter llm.Adapter
	if strings.TrimSpace(cfg.LLMAPIKey) != "" {
		primary, err := llm.NewOpenAIAdapter(llm.OpenAIConfig{
			BaseURL: cfg.LLMBaseURL,
			Token:   cfg.LLMAPIKey,
			Model:   cfg.LLMPrimaryModel,
		})
		if err != nil {
			log.Fatalf("llm adapter init failed: %v", err)
		}
		secondary, err := llm.NewOpenAIAdapter(llm.OpenAIConfig{
			BaseURL: cfg.LLMBaseURL,
			Token:   cfg.LLMAPIKey,
			Model:   cfg.LLMSecondaryModel,
		})
		if err != nil {
			log.Fatalf("llm adapter init failed: %v", err)
		}
		adapter = llm.NewFallbackAdapter(primary, secondary)
		logger.Info("llm parsing enabled",
			zap.String("primary", cfg.LLMPrimaryModel),
			zap.String("secondary", cfg.LLMSecondaryModel))
	} else {
		logger.Info("no LLM_API_KEY set, using deterministic parsing only")
	}

	extractor := parse.NewExtractor()
	var aiParser *parse.AIParser
	if adapter != nil {
		aiParser = parse.NewAIParser(adapter, extractor, reliability.DefaultPolicy())
	}
	parser := parse.NewService(aiParser, extractor, metrics, logger)

	var stt transcribe.Provider
	if strings.TrimSpace(cfg.STTAPIKey) != "" {
		stt = transcribe.NewHTTPProvider(transcribe.HTTPConfig{
			URL:    cfg.STTBaseURL,
			APIKey: cfg.STTAPIKey,
			Model:  cfg.STTModel,
		}, reliability.DefaultPolicy())
		logger.Info("transcription enabled", zap.String("model", cfg.STTModel))
	} else {
		logger.Info("no STT_API_KEY set, transcription endpoint disabled")
	}

	var caregiverNotifier notify.CaregiverNotifier
	if strings.TrimSpace(cfg.SMTPHost) != "" {
		caregiverNotifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
		logger.Info("caregiver email alerts enabled", zap.String("host", cfg.SMTPHost))
	} else {
		logger.Info("no SMTP_HOST set, caregiver alerts log-only")
	}

	conversations := conversation.NewManager(parser, store, bundle, logger,
		conversation.WithMaxAttempts(cfg.ConversationMaxAttempts),
		conversation.WithMaxAge(cfg.ConversationMaxAge),
		conversation.WithQuestionLLM(adapter),
	)
	conversations.SetEventHook(func(event string) {
		metrics.ConversationEvents.WithLabelValues(event).Inc()
		metrics.ActiveConversations.Set(float64(conversations.ActiveCount()))
	})

	doseMonitor := monitor.New(store, caregiverNotifier, &notify.LogLocalNotifier{Logger: logger}, bundle, metrics, logger, monitor.Config{
		Interval:     cfg.MonitorInterval,
		GraceMinutes: cfg.GraceMinutes,
		StaleMinutes: cfg.StaleMinutes,
		PatientName:  cfg.PatientName,
		Language:     cfg.Language,
	})

	api := httpapi.New(cfg, conversations, store, stt, metrics, logger)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	conversations.StartJanitor(runCtx, 30*time.Minute)
	doseMonitor.Start(runCtx)

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutdown signal received")

	doseMonitor.Stop()
	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		_ = httpServer.Close()
	}

	logger.Info("shutdown complete")
}
