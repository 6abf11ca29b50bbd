package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("TRADING_SYMBOLS", "BTCUSDT, EURUSD=X,,")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("ACCOUNT_CAPITAL", "2500")
	t.Setenv("ACCOUNT_RISK_PERCENT", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTCUSDT", "EURUSD=X"}, cfg.Symbols)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, AccountConfig{Capital: 2500, RiskPercent: 2, Leverage: 1}, cfg.Account)
	assert.Contains(t, cfg.Database.DSN(), "port=6543")
	assert.Equal(t, models.PriceTimeFrame1d, cfg.Influx.Interval)

	t.Setenv("INFLUXDB_INTERVAL", "1h")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "1h", cfg.Influx.Interval)
}

func TestLoadRejectsInvalidAccount(t *testing.T) {
	t.Setenv("ACCOUNT_RISK_PERCENT", "150")

	_, err := Load()
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
intervals:
  1d:
    signal_strength: 30
    ml_confidence: 60
    require_patterns: true
    warm_up: 120
  4h:
    signal_strength: 40
    ml_confidence: 70
    warm_up: 150
`), 0o600))

	table, err := LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, strategy.Thresholds{SignalStrength: 30, MLConfidence: 60, RequirePatterns: true, WarmUp: 120}, table.For("1d"))
	assert.Equal(t, 150, table.For("4h").WarmUp)
	assert.Equal(t, 20, table.For("1wk").WarmUp, "unlisted intervals keep built-in thresholds")
	assert.Equal(t, strategy.DefaultPolicyTable().Default, table.Default)
}

func TestLoadPolicyPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default:
  warm_up: 250
intervals:
  1d:
    signal_strength: 30
  15m:
    ml_confidence: 90
`), 0o600))

	table, err := LoadPolicy(path)
	require.NoError(t, err)

	builtin := strategy.DefaultPolicyTable()
	daily := builtin.For("1d")
	daily.SignalStrength = 30
	assert.Equal(t, daily, table.For("1d"), "unset fields keep the built-in row")
	assert.Equal(t, 100, table.For("1d").WarmUp)
	assert.Equal(t, 55.0, table.For("1d").MLConfidence)

	def := builtin.Default
	def.WarmUp = 250
	assert.Equal(t, def, table.Default)

	quarter := def
	quarter.MLConfidence = 90
	assert.Equal(t, quarter, table.For("15m"), "new intervals start from the default row")
	assert.Equal(t, builtin.For("1wk"), table.For("1wk"))
}

func TestLoadPolicyInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("intervals:\n  1d:\n    signal_strength: 250\n"), 0o600))
	_, err := LoadPolicy(bad)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("intervals: [1, 2"), 0o600))
	_, err = LoadPolicy(garbage)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	table, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, strategy.DefaultPolicyTable(), table)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
