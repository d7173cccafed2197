package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the medication reminder service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	DatabaseURL string

	LLMBaseURL        string
	LLMAPIKey         string
	LLMPrimaryModel   string
	LLMSecondaryModel string

	STTBaseURL string
	STTAPIKey  string
	STTModel   string

	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	MonitorInterval time.Duration
	GraceMinutes    int
	StaleMinutes    int

	ConversationMaxAttempts int
	ConversationMaxAge      time.Duration

	PatientName string
	Language    string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "remedi"),
		AllowAnyOrigin:    false,
		DatabaseURL:       stringsTrimSpace("DATABASE_URL"),
		LLMBaseURL:        stringsTrimSpace("LLM_BASE_URL"),
		LLMAPIKey:         stringsTrimSpace("LLM_API_KEY"),
		LLMPrimaryModel:   envOrDefault("LLM_PRIMARY_MODEL", "gpt-4o-mini"),
		LLMSecondaryModel: envOrDefault("LLM_SECONDARY_MODEL", "gpt-3.5-turbo"),
		STTBaseURL:        envOrDefault("STT_BASE_URL", "https://api.openai.com/v1/audio/transcriptions"),
		STTAPIKey:         stringsTrimSpace("STT_API_KEY"),
		STTModel:          envOrDefault("STT_MODEL", "whisper-1"),
		SMTPHost:          stringsTrimSpace("SMTP_HOST"),
		SMTPPort:          587,
		SMTPFrom:          stringsTrimSpace("SMTP_FROM"),
		SMTPUsername:      stringsTrimSpace("SMTP_USERNAME"),
		SMTPPassword:      stringsTrimSpace("SMTP_PASSWORD"),

		ShutdownTimeout:         15 * time.Second,
		MonitorInterval:         60 * time.Second,
		GraceMinutes:            5,
		StaleMinutes:            24 * 60,
		ConversationMaxAttempts: 5,
		ConversationMaxAge:      30 * time.Minute,
		PatientName:             envOrDefault("PATIENT_NAME", "your loved one"),
		Language:                envOrDefault("APP_LANGUAGE", "en"),
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.SMTPPort, err = intFromEnv("SMTP_PORT", cfg.SMTPPort)
	if err != nil {
		return Config{}, err
	}
	cfg.MonitorInterval, err = durationFromEnv("MONITOR_INTERVAL", cfg.MonitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.GraceMinutes, err = intFromEnv("MONITOR_GRACE_MINUTES", cfg.GraceMinutes)
	if err != nil {
		return Config{}, err
	}
	cfg.StaleMinutes, err = intFromEnv("MONITOR_STALE_MINUTES", cfg.StaleMinutes)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationMaxAttempts, err = intFromEnv("CONVERSATION_MAX_ATTEMPTS", cfg.ConversationMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.ConversationMaxAge, err = durationFromEnv("CONVERSATION_MAX_AGE", cfg.ConversationMaxAge)
	if err != nil {
		return Config{}, err
	}

	if cfg.MonitorInterval < 5*time.Second {
		return Config{}, fmt.Errorf("MONITOR_INTERVAL must be at least 5s")
	}
	if cfg.GraceMinutes <= 0 {
		return Config{}, fmt.Errorf("MONITOR_GRACE_MINUTES must be positive")
	}
	if cfg.StaleMinutes <= cfg.GraceMinutes {
		return Config{}, fmt.Errorf("MONITOR_STALE_MINUTES must exceed MONITOR_GRACE_MINUTES")
	}
	if cfg.ConversationMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("CONVERSATION_MAX_ATTEMPTS must be positive")
	}
	if cfg.ConversationMaxAge < time.Minute {
		return Config{}, fmt.Errorf("CONVERSATION_MAX_AGE must be at least 1m")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return Config{}, fmt.Errorf("SMTP_PORT must be a valid port")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
