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
)

// Config holds all application configuration.
type Config struct {
	DataSource DataSource `yaml:"data_source"`
	Signal     Signal     `yaml:"signal"`
	Schedule   Schedule   `yaml:"schedule"`
	Cache      Cache      `yaml:"cache"`
	Server     Server     `yaml:"server"`
	Log        Log        `yaml:"log"`
	Proxy      string     `yaml:"proxy"`
}

// DataSource selects and tunes the upstream market-data API.
type DataSource struct {
	Provider       string            `yaml:"provider" default:"binance" validate:"oneof=binance bybit coingecko mock"`
	BaseURL        string            `yaml:"base_url" validate:"omitempty,url"`
	APIKey         string            `yaml:"api_key"`
	Interval       string            `yaml:"interval" default:"15m" validate:"required"`
	Limit          int               `yaml:"limit" default:"100" validate:"min=21,max=1000"`
	Timeout        time.Duration     `yaml:"timeout" default:"10s" validate:"gt=0"`
	MaxConcurrency int               `yaml:"max_concurrency" default:"4" validate:"min=1"`
	Symbols        []string          `yaml:"symbols" default:"[\"BTCUSDT\",\"ETHUSDT\",\"SOLUSDT\",\"BNBUSDT\",\"XRPUSDT\",\"DOGEUSDT\",\"ADAUSDT\",\"AVAXUSDT\",\"LINKUSDT\",\"MATICUSDT\",\"DOTUSDT\"]" validate:"min=1,dive,required"`
	CoinIDs        map[string]string `yaml:"coin_ids"`
	CoinGeckoDays  int               `yaml:"coingecko_days" default:"1" validate:"min=1"`
}

// Signal holds the Bollinger parameters offered to the presentation layer.
type Signal struct {
	Deviation        float64   `yaml:"deviation" default:"2"`
	DeviationOptions []float64 `yaml:"deviation_options" default:"[0.5,0.8,1,1.2,1.4,1.6,1.8,2,2.3,2.4,2.6,2.8,3,3.3,3.5,3.8,4,4.2,4.4,4.6,4.8,5,5.5]" validate:"min=1"`
}

type Schedule struct {
	RefreshCron string `yaml:"refresh_cron" default:"@every 30s" validate:"required"`
}

// Cache configures the raw payload cache in front of the data source.
type Cache struct {
	Backend    string        `yaml:"backend" default:"memory" validate:"oneof=memory sqlite redis"`
	TTL        time.Duration `yaml:"ttl" default:"30s" validate:"gte=0"`
	MaxEntries int           `yaml:"max_entries" default:"256" validate:"min=1"`
	SQLitePath string        `yaml:"sqlite_path" default:"data/bandsentinel.db"`
	Redis      struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"bandsentinel"`
	} `yaml:"redis"`
}

type Server struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port int    `yaml:"port" default:"8080" validate:"min=1,max=65535"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type Log struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output     string `yaml:"output" default:"stdout"`
	PrintTable bool   `yaml:"print_table"`
}

var validate = validator.New()

// Load fills defaults, then overlays the YAML file and environment variables,
// so explicit zero values such as a 0s cache TTL are kept.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.DataSource.Provider = strings.ToLower(cfg.DataSource.Provider)
	cfg.Cache.Backend = strings.ToLower(cfg.Cache.Backend)
	for i, s := range cfg.DataSource.Symbols {
		cfg.DataSource.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = DefaultBaseURL(cfg.DataSource.Provider)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BS_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("BS_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("BS_SYMBOLS"); v != "" {
		cfg.DataSource.Symbols = splitList(v)
	}
	if v := os.Getenv("BS_INTERVAL"); v != "" {
		cfg.DataSource.Interval = v
	}
	if v := os.Getenv("BS_DEVIATION"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BS_DEVIATION: %w", err)
		}
		cfg.Signal.Deviation = d
	}
	if v := os.Getenv("BS_CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("BS_SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("BS_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("BS_HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BS_HTTP_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("BS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	return nil
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

// Validate checks field constraints and the relations between fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s failed %q validation (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	opts := c.Signal.DeviationOptions
	for i, d := range opts {
		if d <= 0 {
			return fmt.Errorf("signal.deviation_options must be positive, got %v", d)
		}
		if i > 0 && d <= opts[i-1] {
			return fmt.Errorf("signal.deviation_options must be strictly increasing")
		}
	}
	if !c.Signal.HasOption(c.Signal.Deviation) {
		return fmt.Errorf("signal.deviation %v is not one of signal.deviation_options", c.Signal.Deviation)
	}
	if c.Cache.Backend == "sqlite" && c.Cache.SQLitePath == "" {
		return fmt.Errorf("cache.sqlite_path is required for the sqlite backend")
	}
	return nil
}

// HasOption reports whether d is one of the recognised deviation options.
func (s Signal) HasOption(d float64) bool {
	for _, o := range s.DeviationOptions {
		if o == d {
			return true
		}
	}
	return false
}

// DefaultBaseURL returns the public endpoint of a provider.
func DefaultBaseURL(provider string) string {
	switch provider {
	case "binance":
		return "https://api.binance.com"
	case "bybit":
		return "https://api.bybit.com"
	case "coingecko":
		return "https://api.coingecko.com"
	default:
		return ""
	}
}
