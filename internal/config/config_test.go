package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := LoadConfig(writeConfig(t, "env: dev\n"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Address)
	assert.Equal(t, "secret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 1, cfg.Params.Title.Min)
	assert.Equal(t, 255, cfg.Params.Title.Max)
	assert.Equal(t, 1000, cfg.Params.Description.Max)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxSize)
	assert.Contains(t, cfg.Uploads.AllowedTypes, "application/pdf")
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "/ws", cfg.Websocket.Path)
	assert.False(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Elasticsearch.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_PASSWORD", "from-env")

	body := `
address: ":8080"
env: prod
db:
  driver: sqlite
  dsn: file::memory:
  password: from-file
kafka:
  brokers: ["kafka:9092"]
  topic: events
redis:
  address: redis:6379
`
	cfg, err := LoadConfig(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "from-env", cfg.DB.Password)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, "events", cfg.Kafka.EventsTopic)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig(writeConfig(t, "env: dev\n"))
	assert.ErrorIs(t, err, ErrNoJWTSecret)
}
