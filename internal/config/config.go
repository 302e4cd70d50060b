// Package config reads application settings from env / .env through wbf config
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/transform"
)

type Getter interface {
	GetString(key string) string
}

type AppConfig struct {
	Port           string
	GinMode        string
	LogLevel       string
	Gemini         transform.Config
	UploadMaxBytes int64
	SessionTTL     time.Duration
	JanitorPeriod  time.Duration

	ArchiveEnabled bool
	PostgresDSN    string
	MigrationsPath string
	MinioAddr      string
	MinioUser      string
	MinioPass      string
	Bucket         string
	KafkaBroker    string
	KafkaTopic     string

	TelegramToken string
}

// Load - отсутствие ключа Gemini фатально, остальное имеет дефолты
func Load(cfg Getter) (*AppConfig, error) {
	c := &AppConfig{
		Port:     getOr(cfg, "APP_PORT", "8080"),
		GinMode:  getOr(cfg, "GIN_MODE", "release"),
		LogLevel: getOr(cfg, "LOG_LEVEL", "info"),
		Gemini: transform.Config{
			APIKey: strings.TrimSpace(cfg.GetString("GEMINI_API_KEY")),
			Model:  getOr(cfg, "GEMINI_MODEL", transform.DefaultModel),
		},
		PostgresDSN:    cfg.GetString("POSTGRES_DSN"),
		MigrationsPath: getOr(cfg, "MIGRATIONS_PATH", "./migrations"),
		MinioAddr:      cfg.GetString("MINIO_CONTAINER_NAME"),
		MinioUser:      cfg.GetString("MINIO_USER"),
		MinioPass:      cfg.GetString("MINIO_PASS"),
		Bucket:         getOr(cfg, "BUCKET_NAME", "animations"),
		KafkaBroker:    cfg.GetString("KAFKA_BROKER"),
		KafkaTopic:     getOr(cfg, "KAFKA_TOPIC", "animation-attempts"),
		TelegramToken:  strings.TrimSpace(cfg.GetString("TELEGRAM_BOT_TOKEN")),
	}

	if c.Gemini.APIKey == "" {
		return nil, model.ErrMissingCredential
	}

	var err error
	if c.UploadMaxBytes, err = parseInt(cfg, "UPLOAD_MAX_BYTES", 10<<20); err != nil {
		return nil, err
	}
	if c.SessionTTL, err = parseDuration(cfg, "SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if c.JanitorPeriod, err = parseDuration(cfg, "SESSION_JANITOR_PERIOD", time.Minute); err != nil {
		return nil, err
	}
	if c.ArchiveEnabled, err = parseBool(cfg, "ARCHIVE_ENABLED", false); err != nil {
		return nil, err
	}

	if c.ArchiveEnabled && (c.PostgresDSN == "" || c.MinioAddr == "" || c.KafkaBroker == "") {
		return nil, fmt.Errorf("ARCHIVE_ENABLED requires POSTGRES_DSN, MINIO_CONTAINER_NAME and KAFKA_BROKER")
	}

	return c, nil
}

func getOr(cfg Getter, key, def string) string {
	if v := strings.TrimSpace(cfg.GetString(key)); v != "" {
		return v
	}
	return def
}

func parseInt(cfg Getter, key string, def int64) (int64, error) {
	raw := strings.TrimSpace(cfg.GetString(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("incorrect %s value %q", key, raw)
	}
	return v, nil
}

func parseDuration(cfg Getter, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(cfg.GetString(key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("incorrect %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func parseBool(cfg Getter, key string, def bool) (bool, error) {
	raw := strings.TrimSpace(cfg.GetString(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("incorrect %s value %q: %w", key, raw, err)
	}
	return v, nil
}
