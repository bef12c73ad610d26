package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketScanner/internal/logger"
	"MarketScanner/internal/model"
	"MarketScanner/internal/scanner"
	"MarketScanner/internal/strategy"
	"MarketScanner/internal/universe"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`

		// MockPrice seeds generated bars when Provider is mock.
		MockPrice float64 `yaml:"mock_price" default:"100" validate:"gte=0"`
	} `yaml:"data_source"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron" default:"0 0 14 * * 1-5"`
	} `yaml:"schedule"`
	Scan     Scan               `yaml:"scan"`
	Universe []model.Instrument `yaml:"universe"`
	Cache    Cache              `yaml:"cache"`
	Metrics  struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Cache configures the SQLite bar cache. Pointer fields keep an explicit
// empty path or zero TTL, either of which turns the cache off.
type Cache struct {
	SQLitePath *string        `yaml:"sqlite_path" default:"data/market_scanner.db"`
	TTL        *time.Duration `yaml:"ttl" default:"6h" validate:"required,gte=0"`
}

// Enabled reports whether fetched bars are cached.
func (c Cache) Enabled() bool {
	return c.Path() != "" && c.Expiry() > 0
}

// Path returns the database path, empty when unset.
func (c Cache) Path() string { return valueOr(c.SQLitePath) }

// Expiry returns how long cached bars stay fresh.
func (c Cache) Expiry() time.Duration { return valueOr(c.TTL) }

// WeightOverrides replaces individual preset weights. Omitted keys keep
// the preset value.
type WeightOverrides struct {
	Oversold    *float64 `yaml:"oversold" validate:"omitempty,gte=0"`
	Crossover   *float64 `yaml:"crossover" validate:"omitempty,gte=0"`
	Volatility  *float64 `yaml:"volatility" validate:"omitempty,gte=0"`
	VolumeSpike *float64 `yaml:"volume_spike" validate:"omitempty,gte=0"`
}

func (w *WeightOverrides) applyTo(dst *model.TriggerWeights) {
	if w == nil {
		return
	}
	if w.Oversold != nil {
		dst.Oversold = *w.Oversold
	}
	if w.Crossover != nil {
		dst.Crossover = *w.Crossover
	}
	if w.Volatility != nil {
		dst.Volatility = *w.Volatility
	}
	if w.VolumeSpike != nil {
		dst.VolumeSpike = *w.VolumeSpike
	}
}

// Scan holds the screening parameters. Pointer fields are optional
// overrides of the selected preset.
type Scan struct {
	Preset string  `yaml:"preset" default:"classic"`
	Market string  `yaml:"market" default:"both" validate:"oneof=domestic foreign both"`
	Budget float64 `yaml:"budget" default:"1000000" validate:"gt=0"`

	// TopN selects a fixed number of candidates; zero means adaptive mode.
	TopN      int      `yaml:"top_n" validate:"gte=0"`
	Threshold *float64 `yaml:"threshold" default:"50" validate:"required,gte=0"`

	Weights            *WeightOverrides `yaml:"weights"`
	OversoldLevel      *float64         `yaml:"oversold_level" validate:"omitempty,gt=0,lt=100"`
	DomesticVolatility *float64         `yaml:"domestic_volatility" validate:"omitempty,gt=0"`
	ForeignVolatility  *float64         `yaml:"foreign_volatility" validate:"omitempty,gt=0"`
	VolumeMultiplier   *float64         `yaml:"volume_multiplier" validate:"omitempty,gt=0"`
	MinBars            *int             `yaml:"min_bars" validate:"omitempty,gte=2"`

	LookbackDays     int     `yaml:"lookback_days" default:"100" validate:"gt=0"`
	LotSize          int64   `yaml:"lot_size" default:"1000" validate:"gt=0"`
	StopLossFraction float64 `yaml:"stop_loss_fraction" validate:"gte=0,lt=1"`
	HedgeTicker      string  `yaml:"hedge_ticker" default:"00632R.TW"`

	Concurrency int `yaml:"concurrency" default:"1" validate:"gte=1"`
	MaxAttempts int `yaml:"max_attempts" default:"2" validate:"gte=1"`

	// Durations are pointers so an explicit 0s (pacing, timeout or
	// deadline off) survives default filling.
	RequestInterval *time.Duration `yaml:"request_interval" default:"500ms" validate:"required,gte=0"`
	RetryBaseDelay  *time.Duration `yaml:"retry_base_delay" default:"1s" validate:"required,gte=0"`
	FetchTimeout    *time.Duration `yaml:"fetch_timeout" default:"15s" validate:"required,gte=0"`
	ScanDeadline    *time.Duration `yaml:"scan_deadline" default:"5m" validate:"required,gte=0"`
}

var validate = validator.New()

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, fills defaults and validates the result. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN":   &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":     &cfg.Telegram.ChatID,
		"DATA_SOURCE_PROVIDER": &cfg.DataSource.Provider,
		"DATA_SOURCE_BASE_URL": &cfg.DataSource.BaseURL,
		"DATA_SOURCE_API_KEY":  &cfg.DataSource.APIKey,
		"HTTPS_PROXY":          &cfg.Proxy,
		"CRON_SCAN":            &cfg.Schedule.ScanCron,
		"METRICS_LISTEN":       &cfg.Metrics.Listen,
		"LOG_LEVEL":            &cfg.Log.Level,
		"SCAN_PRESET":          &cfg.Scan.Preset,
		"SCAN_MARKET":          &cfg.Scan.Market,
	}
	for key, dst := range str {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	// An explicitly empty SQLITE_PATH disables the cache.
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		path := strings.TrimSpace(v)
		cfg.Cache.SQLitePath = &path
	}

	if v := os.Getenv("SCAN_BUDGET"); v != "" {
		budget, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SCAN_BUDGET: %w", err)
		}
		cfg.Scan.Budget = budget
	}
	if v := os.Getenv("SCAN_TOP_N"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCAN_TOP_N: %w", err)
		}
		cfg.Scan.TopN = n
	}
	if v := os.Getenv("SCAN_THRESHOLD"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SCAN_THRESHOLD: %w", err)
		}
		cfg.Scan.Threshold = &t
	}
	return nil
}

// Validate checks field constraints and the cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required when telegram.bot_token is set")
	}
	if c.DataSource.Provider == "rest" && c.DataSource.BaseURL == "" {
		return errors.New("data_source.base_url is required for the rest provider")
	}
	if _, err := strategy.Preset(c.Scan.Preset); err != nil {
		return fmt.Errorf("scan.preset: %w", err)
	}
	for i, inst := range c.Universe {
		if strings.TrimSpace(inst.Ticker) == "" {
			return fmt.Errorf("universe[%d]: ticker is required", i)
		}
	}
	return nil
}

// Policy returns the selection policy. A positive top_n selects a fixed
// count; otherwise the threshold applies.
func (s Scan) Policy() model.SelectionPolicy {
	if s.TopN > 0 {
		return model.FixedCount(s.TopN)
	}
	threshold := 0.0
	if s.Threshold != nil {
		threshold = *s.Threshold
	}
	return model.AdaptiveThreshold(threshold)
}

// StrategyParams resolves the preset and applies any overrides.
func (s Scan) StrategyParams() (strategy.Params, error) {
	p, err := strategy.Preset(s.Preset)
	if err != nil {
		return strategy.Params{}, err
	}
	s.Weights.applyTo(&p.Triggers.Weights)
	if s.OversoldLevel != nil {
		p.Triggers.OversoldLevel = *s.OversoldLevel
	}
	if s.DomesticVolatility != nil {
		p.Triggers.DomesticVolatility = *s.DomesticVolatility
	}
	if s.ForeignVolatility != nil {
		p.Triggers.ForeignVolatility = *s.ForeignVolatility
	}
	if s.VolumeMultiplier != nil {
		p.Triggers.VolumeMultiplier = *s.VolumeMultiplier
	}
	if s.MinBars != nil {
		p.Indicators.MinBars = *s.MinBars
	}
	return p, nil
}

// PresetParams resolves the named preset with the configured overrides
// applied on top of it.
func (s Scan) PresetParams(name string) (strategy.Params, error) {
	s.Preset = name
	return s.StrategyParams()
}

// ToScanConfig builds the immutable per-scan parameter set.
func (c *Config) ToScanConfig() (scanner.Config, error) {
	params, err := c.Scan.StrategyParams()
	if err != nil {
		return scanner.Config{}, err
	}
	insts := c.Universe
	if len(insts) == 0 {
		insts = universe.Default()
	}
	return scanner.Config{
		Universe:         universe.Classify(insts),
		Filter:           model.MarketFilter(c.Scan.Market),
		LookbackDays:     c.Scan.LookbackDays,
		Strategy:         params,
		Policy:           c.Scan.Policy(),
		Budget:           c.Scan.Budget,
		LotSize:          c.Scan.LotSize,
		StopLossFraction: c.Scan.StopLossFraction,
		HedgeTicker:      c.Scan.HedgeTicker,
		RequestInterval:  valueOr(c.Scan.RequestInterval),
		Concurrency:      c.Scan.Concurrency,
		MaxAttempts:      c.Scan.MaxAttempts,
		RetryBaseDelay:   valueOr(c.Scan.RetryBaseDelay),
		FetchTimeout:     valueOr(c.Scan.FetchTimeout),
		ScanDeadline:     valueOr(c.Scan.ScanDeadline),
	}, nil
}

func valueOr[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
