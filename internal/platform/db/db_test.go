package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1.0.0"
mode: dev
server:
  addr: ":9090"
database:
  host: db.local
  port: 3306
  user: libra
  password: secret
  dbname: libra
lending:
  borrowing_period_days: 21
  daily_late_fee: 1.00
  renewal_grace_days: 3
auth:
  jwt_secret: s3cret
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "db.local", cfg.DB.Host)
	assert.Equal(t, 21, cfg.Lending.BorrowingPeriodDays)
	assert.Equal(t, 1.00, cfg.Lending.DailyLateFee)
	assert.Equal(t, 3, cfg.Lending.RenewalGraceDays)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
mode: dev
database:
  host: 127.0.0.1
  port: 3306
  user: libra
  password: libra
  dbname: libra
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.Lending.BorrowingPeriodDays)
	assert.Equal(t, 0.50, cfg.Lending.DailyLateFee)
	assert.Equal(t, 7, cfg.Lending.RenewalGraceDays)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := writeConfig(t, "mode: [broken")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
