package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
database:
  host: db.internal
  port: 5432
  user: restopos
  password: filepass
  database: restopos

rabbitmq:
  host: mq.internal
  port: 5672
  user: guest
  password: guest

http:
  port: 8080

polling:
  cashier_interval_seconds: 2

fees:
  packaging:
    active: true
    amount: 2.50
  delivery:
    active: true
    amount: 5.00
    free_threshold: 60.00
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 8080, cfg.HTTP.Port)

	// Unset values fall back to defaults.
	assert.Equal(t, "http://localhost:8080", cfg.Store.BaseURL)
	assert.Equal(t, 3001, cfg.HTTP.CashierPort)
	assert.Equal(t, 2, cfg.Polling.CashierIntervalSec)
	assert.Equal(t, 10, cfg.Polling.KitchenIntervalSec)
	assert.Equal(t, 15, cfg.Polling.AdminIntervalSec)

	delivery := cfg.Fees.Delivery.Rule()
	assert.True(t, delivery.Active)
	assert.True(t, delivery.Amount.Equal(decimal.NewFromFloat(5.00)))
	assert.True(t, delivery.FreeThreshold.Equal(decimal.NewFromFloat(60.00)))

	packaging := cfg.Fees.Packaging.Rule()
	assert.True(t, packaging.Active)
	assert.True(t, packaging.FreeThreshold.IsZero())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  password: filepass
store:
  base_url: http://store.internal:3000
`)

	t.Setenv("RESTOPOS_DB_PASSWORD", "envpass")
	t.Setenv("RESTOPOS_STORE_URL", "http://override:9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "envpass", cfg.Database.Password)
	assert.Equal(t, "http://override:9000", cfg.Store.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
