package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "log", c.Messaging.Mode)
	require.Equal(t, time.Hour, c.Tokens.PasswordResetTTL)
	require.Equal(t, 48*time.Hour, c.Tokens.EmailConfirmTTL)
	require.Equal(t, int64(64<<10), c.Server.MaxBodyBytes)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9000"
  cors_allowed_origins: ["http://a.example"]
tokens:
  password_reset_ttl: 30m
rate:
  enabled: true
  password_reset:
    limit: 2
    window: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("SERVER_ADDR", ":9100")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "http://b.example, http://c.example")

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9100", c.Server.Addr)
	require.Equal(t, []string{"http://b.example", "http://c.example"}, c.Server.CORSAllowedOrigins)
	require.Equal(t, 30*time.Minute, c.Tokens.PasswordResetTTL)
	require.True(t, c.Rate.Enabled)
	require.Equal(t, 2, c.Rate.PasswordReset.Limit)
	require.Equal(t, time.Minute, c.Rate.PasswordReset.Window)
}

func TestValidate(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	c.Storage.Driver = "postgres"
	require.Error(t, c.Validate())
	c.Storage.DSN = "postgres://localhost/security"
	require.NoError(t, c.Validate())

	c.Messaging.Mode = "pigeon"
	require.Error(t, c.Validate())
	c.Messaging.Mode = "http"
	require.Error(t, c.Validate())
	c.Messaging.HTTP.BaseURL = "http://messaging:5006"
	require.NoError(t, c.Validate())

	c.App.Env = "prod"
	require.Error(t, c.Validate())
	c.Tokens.SigningKey = "0123456789abcdef0123456789abcdef"
	require.NoError(t, c.Validate())

	c.SMTP.PasswordEnc = "bm9uY2U=|Y3Q="
	require.ErrorContains(t, c.Validate(), "secretbox_key")
	c.Security.SecretboxKey = "0123456789abcdef0123456789abcdef"
	require.NoError(t, c.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}
