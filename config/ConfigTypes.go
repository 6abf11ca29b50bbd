package config

type Config struct {
	Exchange ExchangeConfig
	Database DatabaseConfig
	Influx   InfluxConfig
	Account  AccountConfig
	Symbols  []string

	// PolicyFile optionally overrides the entry policy table.
	PolicyFile string
	LogLevel   string
}

type ExchangeConfig struct {
	APIKey    string
	SecretKey string
	BaseURL   string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Interval    string // resolution of the stored series
}

// AccountConfig holds the simulated account parameters.
type AccountConfig struct {
	Capital     float64 `validate:"gt=0"`
	RiskPercent float64 `validate:"gt=0,lte=100"`
	Leverage    int     `validate:"gte=1"`
}

// policyFile is the YAML shape of a policy override. Nil fields keep the
// built-in value.
type policyFile struct {
	Default   *thresholdsOverride           `yaml:"default"`
	Intervals map[string]thresholdsOverride `yaml:"intervals"`
}

type thresholdsOverride struct {
	SignalStrength  *float64 `yaml:"signal_strength"`
	MLConfidence    *float64 `yaml:"ml_confidence"`
	RequirePatterns *bool    `yaml:"require_patterns"`
	WarmUp          *int     `yaml:"warm_up"`
}
