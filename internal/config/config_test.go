package config

import (
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/transform"
	"github.com/stretchr/testify/require"
)

type mapGetter map[string]string

func (m mapGetter) GetString(key string) string { return m[key] }

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(mapGetter{"GEMINI_API_KEY": "secret"})
	require.NoError(t, err)
	require.Equal(t, "8080", c.Port)
	require.Equal(t, "secret", c.Gemini.APIKey)
	require.Equal(t, transform.DefaultModel, c.Gemini.Model)
	require.EqualValues(t, 10<<20, c.UploadMaxBytes)
	require.Equal(t, 30*time.Minute, c.SessionTTL)
	require.False(t, c.ArchiveEnabled)
	require.Empty(t, c.TelegramToken)
}

func TestLoad_MissingCredential(t *testing.T) {
	_, err := Load(mapGetter{"APP_PORT": "9000"})
	require.ErrorIs(t, err, model.ErrMissingCredential)
}

func TestLoad_Overrides(t *testing.T) {
	c, err := Load(mapGetter{
		"GEMINI_API_KEY":       "k",
		"GEMINI_MODEL":         "gemini-x",
		"UPLOAD_MAX_BYTES":     "1024",
		"SESSION_TTL":          "5m",
		"ARCHIVE_ENABLED":      "true",
		"POSTGRES_DSN":         "postgres://u:p@db:5432/anim",
		"MINIO_CONTAINER_NAME": "minio",
		"KAFKA_BROKER":         "kafka:9092",
	})
	require.NoError(t, err)
	require.Equal(t, "gemini-x", c.Gemini.Model)
	require.EqualValues(t, 1024, c.UploadMaxBytes)
	require.Equal(t, 5*time.Minute, c.SessionTTL)
	require.True(t, c.ArchiveEnabled)
}

func TestLoad_BadValues(t *testing.T) {
	tests := []struct {
		name string
		env  mapGetter
	}{
		{"bad size", mapGetter{"GEMINI_API_KEY": "k", "UPLOAD_MAX_BYTES": "ten"}},
		{"negative size", mapGetter{"GEMINI_API_KEY": "k", "UPLOAD_MAX_BYTES": "-1"}},
		{"bad ttl", mapGetter{"GEMINI_API_KEY": "k", "SESSION_TTL": "forever"}},
		{"bad bool", mapGetter{"GEMINI_API_KEY": "k", "ARCHIVE_ENABLED": "maybe"}},
		{"archive without deps", mapGetter{"GEMINI_API_KEY": "k", "ARCHIVE_ENABLED": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.env)
			require.Error(t, err)
		})
	}
}
