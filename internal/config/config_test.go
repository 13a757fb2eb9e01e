package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testKey    = "fedcba9876543210fedcba9876543210"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAMLThenEnvironment(t *testing.T) {
	path := writeFile(t, "bizhub.yaml", `
server:
  addr: ":9000"
  shutdown_timeout: 3s
auth:
  secret: "`+testSecret+`"
session:
  key: "`+testKey+`"
audit:
  buffer: 50
cors:
  allowed_origins: ["https://app.example.com"]
`)
	t.Setenv("BIZHUB_LOG_LEVEL", "debug")
	t.Setenv("BIZHUB_ADDR", ":9100")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Server.Addr, "environment overrides yaml")
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "defaults survive")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 50, cfg.Audit.Buffer)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.UsePostgres())
}

func TestLoadEnvFile(t *testing.T) {
	envFile := writeFile(t, ".env", "BIZHUB_AUTH_SECRET="+testSecret+"\nBIZHUB_SESSION_KEY="+testKey+"\nBIZHUB_DATABASE_DSN=postgres://localhost/bizhub\n")
	t.Cleanup(func() {
		os.Unsetenv("BIZHUB_AUTH_SECRET")
		os.Unsetenv("BIZHUB_SESSION_KEY")
		os.Unsetenv("BIZHUB_DATABASE_DSN")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.Secret)
	assert.True(t, cfg.UsePostgres())
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("BIZHUB_AUTH_SECRET", testSecret)
	t.Setenv("BIZHUB_SESSION_KEY", testKey)

	_, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadMissingYAMLFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	cfg.Audit.Postgres = true
	cfg.Audit.RedisStream = "audit"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"auth.secret", "session.key", "logging.format", "audit.postgres", "audit.redis_stream"} {
		assert.True(t, strings.Contains(err.Error(), want), "missing %q in %v", want, err)
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Default()
	cfg.Auth.Secret = testSecret
	cfg.Session.Key = testKey
	assert.NoError(t, cfg.Validate())
}
