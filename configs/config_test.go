package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: checkout-api
  http_addr: ":8080"
mysql:
  dsn: "root:root@tcp(localhost:3306)/toystore?parseTime=true"
  max_open_conns: 10
redis:
  addr: "localhost:6379"
idempotency:
  ttl: 24h
security:
  jwt_secret: "jwt"
  guest_secret: "guest"
gateway:
  base_url: "https://sandbox.pay.example.com/checkout"
  secret: "gw"
`

func writeConfigs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoadBase(t *testing.T) {
	dir := writeConfigs(t, map[string]string{"base.yaml": baseYAML})

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 10, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
}

func TestLoadEnvFileOverridesBase(t *testing.T) {
	dir := writeConfigs(t, map[string]string{
		"base.yaml": baseYAML,
		"prod.yaml": "app:\n  http_addr: \":80\"\n",
	})

	cfg, err := Load(dir, "prod")
	require.NoError(t, err)
	assert.Equal(t, ":80", cfg.App.HTTPAddr)
	// untouched keys keep base values
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvVarsOverrideFiles(t *testing.T) {
	dir := writeConfigs(t, map[string]string{"base.yaml": baseYAML})
	t.Setenv("CHECKOUT_GATEWAY__SECRET", "from-env")
	t.Setenv("CHECKOUT_MYSQL__DSN", "root:pw@tcp(db:3306)/toystore")

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Gateway.Secret)
	assert.Equal(t, "root:pw@tcp(db:3306)/toystore", cfg.MySQL.DSN)
}

func TestLoadRejectsIncomplete(t *testing.T) {
	dir := writeConfigs(t, map[string]string{
		"base.yaml": "app:\n  http_addr: \":8080\"\n",
	})

	_, err := Load(dir, "dev")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.Validate())

	cfg.App.HTTPAddr = ":8080"
	cfg.MySQL.DSN = "dsn"
	cfg.Gateway.BaseURL = "https://gw"
	cfg.Gateway.Secret = "s"
	cfg.Security.JWTSecret = "j"
	cfg.Security.GuestSecret = "g"
	assert.NoError(t, cfg.Validate())
}
