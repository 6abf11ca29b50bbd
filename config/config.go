package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/services/strategy"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		Exchange: ExchangeConfig{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
			BaseURL:   os.Getenv("BINANCE_BASE_URL"),
		},
		Database: DatabaseConfig{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     EnvtoInt(envOr("DB_PORT", "5432")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Influx: InfluxConfig{
			URL:         envOr("INFLUXDB_URL", "http://localhost:8086"),
			Token:       os.Getenv("INFLUXDB_TOKEN"),
			Org:         os.Getenv("INFLUXDB_ORG"),
			Bucket:      envOr("INFLUXDB_BUCKET", "financial-data"),
			Measurement: envOr("INFLUXDB_MEASUREMENT", "stock_prices"),
			Interval:    envOr("INFLUXDB_INTERVAL", models.PriceTimeFrame1d),
		},
		Account: AccountConfig{
			Capital:     envFloat("ACCOUNT_CAPITAL", 10000),
			RiskPercent: envFloat("ACCOUNT_RISK_PERCENT", 1),
			Leverage:    EnvtoInt(envOr("ACCOUNT_LEVERAGE", "1")),
		},
		Symbols:    getSymbols(),
		PolicyFile: os.Getenv("POLICY_FILE"),
		LogLevel:   envOr("LOG_LEVEL", "info"),
	}

	if err := cfg.Account.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a AccountConfig) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: account: %v", models.ErrInvalidInput, err)
	}
	return nil
}

// DSN is the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

// LoadPolicy reads an entry policy table from a YAML file. Fields absent
// from the file keep their built-in values: a listed interval starts from
// its built-in row, or from the default row when the interval is new. An
// empty path returns the built-in table.
func LoadPolicy(path string) (strategy.PolicyTable, error) {
	table := strategy.DefaultPolicyTable()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return table, fmt.Errorf("read policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return table, fmt.Errorf("%w: parse policy file %s: %v", models.ErrInvalidInput, path, err)
	}
	if file.Default != nil {
		table.Default = file.Default.apply(table.Default)
	}
	for interval, row := range file.Intervals {
		base, ok := table.Intervals[interval]
		if !ok {
			base = table.Default
		}
		table.Intervals[interval] = row.apply(base)
	}

	if err := table.Validate(); err != nil {
		return table, err
	}
	slog.Info("loaded entry policy", "path", path, "intervals", len(table.Intervals))
	return table, nil
}

func (o thresholdsOverride) apply(base strategy.Thresholds) strategy.Thresholds {
	if o.SignalStrength != nil {
		base.SignalStrength = *o.SignalStrength
	}
	if o.MLConfidence != nil {
		base.MLConfidence = *o.MLConfidence
	}
	if o.RequirePatterns != nil {
		base.RequirePatterns = *o.RequirePatterns
	}
	if o.WarmUp != nil {
		base.WarmUp = *o.WarmUp
	}
	return base
}

// ParseLevel maps a LOG_LEVEL value to a slog level.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("ignoring unparsable env value", "key", key, "value", v)
		return fallback
	}
	return f
}

// helper to get symbols
func getSymbols() []string {
	symbols := os.Getenv("TRADING_SYMBOLS")
	if symbols == "" {
		return []string{"BTCUSDT", "ETHUSDT"} // Default pairs if none specified
	}
	out := make([]string, 0)
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
