package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketScanner/internal/model"
	"MarketScanner/internal/universe"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "DATA_SOURCE_PROVIDER",
	"DATA_SOURCE_BASE_URL", "DATA_SOURCE_API_KEY", "HTTPS_PROXY", "CRON_SCAN",
	"SQLITE_PATH", "METRICS_LISTEN", "LOG_LEVEL", "SCAN_PRESET", "SCAN_MARKET",
	"SCAN_BUDGET", "SCAN_TOP_N", "SCAN_THRESHOLD",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		// Setenv registers the restore; the variable is then removed so
		// LookupEnv sees it as unset.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "0 0 14 * * 1-5", cfg.Schedule.ScanCron)
	assert.Equal(t, 6*time.Hour, cfg.Cache.Expiry())
	assert.Equal(t, "data/market_scanner.db", cfg.Cache.Path())
	assert.True(t, cfg.Cache.Enabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "classic", cfg.Scan.Preset)
	assert.Equal(t, 1_000_000.0, cfg.Scan.Budget)
	assert.Equal(t, 2, cfg.Scan.MaxAttempts)
	assert.Equal(t, model.AdaptiveThreshold(50), cfg.Scan.Policy())

	sc, err := cfg.ToScanConfig()
	require.NoError(t, err)
	require.NoError(t, sc.Validate())
	assert.Len(t, sc.Universe, len(universe.Default()))
	assert.Equal(t, model.FilterBoth, sc.Filter)
	assert.Equal(t, 100, sc.LookbackDays)
	assert.Equal(t, int64(1000), sc.LotSize)
	assert.Equal(t, "00632R.TW", sc.HedgeTicker)
	assert.Equal(t, 20.0, sc.Strategy.Triggers.OversoldLevel)
	assert.Equal(t, 500*time.Millisecond, sc.RequestInterval)
	assert.Equal(t, time.Second, sc.RetryBaseDelay)
	assert.Equal(t, 15*time.Second, sc.FetchTimeout)
	assert.Equal(t, 5*time.Minute, sc.ScanDeadline)
}

func TestLoad_ExplicitZerosSurviveDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, `
scan:
  request_interval: 0s
  retry_base_delay: 0s
  fetch_timeout: 0s
  scan_deadline: 0s
cache:
  ttl: 0s
`))
	require.NoError(t, err)

	sc, err := cfg.ToScanConfig()
	require.NoError(t, err)
	assert.Zero(t, sc.RequestInterval)
	assert.Zero(t, sc.RetryBaseDelay)
	assert.Zero(t, sc.FetchTimeout)
	assert.Zero(t, sc.ScanDeadline)
	assert.Zero(t, cfg.Cache.Expiry())
	assert.False(t, cfg.Cache.Enabled())
}

func TestLoad_EmptyCachePathDisablesCache(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "cache:\n  sqlite_path: \"\"\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Cache.Path())
	assert.False(t, cfg.Cache.Enabled())

	t.Setenv("SQLITE_PATH", "")
	cfg, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled())
}

func TestLoad_PartialWeightsKeepPresetValues(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "scan:\n  weights:\n    oversold: 55\n    volume_spike: 0\n"))
	require.NoError(t, err)

	p, err := cfg.Scan.StrategyParams()
	require.NoError(t, err)
	w := p.Triggers.Weights
	assert.Equal(t, 55.0, w.Oversold)
	assert.Equal(t, 30.0, w.Crossover)
	assert.Equal(t, 20.0, w.Volatility)
	assert.Equal(t, 0.0, w.VolumeSpike, "explicit zero switches the rule off")
}

func TestScan_PresetParamsKeepsOverrides(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "scan:\n  preset: classic\n  oversold_level: 28\n  min_bars: 40\n"))
	require.NoError(t, err)

	p, err := cfg.Scan.PresetParams("aggressive")
	require.NoError(t, err)
	assert.Equal(t, 28.0, p.Triggers.OversoldLevel)
	assert.Equal(t, 40, p.Indicators.MinBars)
	assert.Equal(t, 1.5, p.Triggers.VolumeMultiplier)
	assert.Equal(t, 20.0, p.Triggers.Weights.VolumeSpike)

	_, err = cfg.Scan.PresetParams("yolo")
	assert.Error(t, err)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
scan:
  preset: aggressive
  market: domestic
  top_n: 3
  threshold: 0
  oversold_level: 28
  weights:
    oversold: 50
    crossover: 25
    volatility: 15
    volume_spike: 10
  request_interval: 2s
universe:
  - ticker: 2330.TW
    name: TSMC
  - ticker: AAPL
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Scan.Threshold)
	assert.Equal(t, 0.0, *cfg.Scan.Threshold, "explicit zero threshold is kept")
	assert.Equal(t, model.FixedCount(3), cfg.Scan.Policy())

	sc, err := cfg.ToScanConfig()
	require.NoError(t, err)
	assert.Equal(t, model.FilterDomestic, sc.Filter)
	assert.Equal(t, 2*time.Second, sc.RequestInterval)
	assert.Equal(t, 28.0, sc.Strategy.Triggers.OversoldLevel)
	assert.Equal(t, 50.0, sc.Strategy.Triggers.Weights.Oversold)
	assert.Equal(t, 1.5, sc.Strategy.Triggers.VolumeMultiplier, "untouched preset values survive")
	require.Len(t, sc.Universe, 2)
	assert.Equal(t, model.MarketDomestic, sc.Universe[0].Market)
	assert.Equal(t, model.MarketForeign, sc.Universe[1].Market)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCAN_BUDGET", "250000")
	t.Setenv("SCAN_TOP_N", "5")
	t.Setenv("SCAN_MARKET", "foreign")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, "scan:\n  budget: 10\n"))
	require.NoError(t, err)
	assert.Equal(t, 250000.0, cfg.Scan.Budget)
	assert.Equal(t, model.FixedCount(5), cfg.Scan.Policy())
	assert.Equal(t, "foreign", cfg.Scan.Market)
	assert.Equal(t, "token", cfg.Telegram.BotToken)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "negative budget", body: "scan:\n  budget: -1\n"},
		{name: "unknown market", body: "scan:\n  market: asia\n"},
		{name: "unknown preset", body: "scan:\n  preset: yolo\n"},
		{name: "negative threshold", body: "scan:\n  threshold: -5\n"},
		{name: "negative weight", body: "scan:\n  weights:\n    oversold: -1\n"},
		{name: "rest without url", body: "data_source:\n  provider: rest\n"},
		{name: "token without chat", body: "telegram:\n  bot_token: abc\n"},
		{name: "blank universe ticker", body: "universe:\n  - name: nothing\n"},
		{name: "bad env budget", env: map[string]string{"SCAN_BUDGET": "lots"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "scan: [unterminated"))
	assert.Error(t, err)
}
