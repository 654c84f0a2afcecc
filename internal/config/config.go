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
	"gopkg.in/yaml.v3"

	"StockPulse/internal/calculator"
	"StockPulse/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider string `yaml:"provider" default:"yahoo" validate:"oneof=yahoo rest mock"`
		BaseURL  string `yaml:"base_url" validate:"required_if=Provider rest"`
		APIKey   string `yaml:"api_key"`
		// MockPrice seeds the synthetic series of the mock provider.
		MockPrice float64 `yaml:"mock_price" default:"100" validate:"gt=0"`
	} `yaml:"data_source"`
	Analysis struct {
		Symbols          []string `yaml:"symbols" default:"[\"SPY\"]" validate:"min=1,dive,required"`
		Period           string   `yaml:"period" default:"1y" validate:"oneof=1wk 1mo 3mo 6mo 1y 2y 5y"`
		BacktestPeriod   string   `yaml:"backtest_period" default:"2y" validate:"oneof=1wk 1mo 3mo 6mo 1y 2y 5y"`
		InitialCapital   float64  `yaml:"initial_capital" default:"10000" validate:"gt=0"`
		PositionFraction float64  `yaml:"position_fraction" default:"1" validate:"gt=0,lte=1"`
	} `yaml:"analysis"`
	Indicators calculator.Params `yaml:"indicators"`
	Signal     strategy.Policy   `yaml:"signal"`
	Schedule   struct {
		DailyCron string `yaml:"daily_cron" default:"0 30 22 * * 1-5" validate:"required"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/stockpulse.db"`
	} `yaml:"database"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
		TTL     time.Duration `yaml:"ttl" default:"15m"`
		Redis   struct {
			Addr      string `yaml:"addr" default:"localhost:6379" validate:"required_if=Backend redis"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db" validate:"gte=0"`
			KeyPrefix string `yaml:"key_prefix" default:"stockpulse:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Server struct {
		Enabled     bool     `yaml:"enabled" default:"true"`
		Addr        string   `yaml:"addr" default:":8080" validate:"required_if=Enabled true"`
		CORSOrigins []string `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Indicators: calculator.DefaultParams(),
		Signal:     strategy.DefaultPolicy(),
	}
	if err := defaults.Set(cfg); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("STOCKPULSE_SYMBOLS"); v != "" {
		cfg.Analysis.Symbols = splitList(v)
	}
	if v := os.Getenv("INITIAL_CAPITAL"); v != "" {
		if capital, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.InitialCapital = capital
		}
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	for i, s := range cfg.Analysis.Symbols {
		cfg.Analysis.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var validate = validator.New()

// Validate checks field constraints and the indicator and signal settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if err := c.Signal.Validate(); err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
