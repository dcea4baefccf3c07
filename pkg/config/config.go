package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string       `yaml:"environment" default:"development" validate:"required"`
	Log         Log          `yaml:"log"`
	Server      Server       `yaml:"server"`
	Metrics     Metrics      `yaml:"metrics"`
	Backend     Backend      `yaml:"backend"`
	Kafka       Kafka        `yaml:"kafka"`
	ClickHouse  ClickHouse   `yaml:"clickhouse"`
	Redis       Redis        `yaml:"redis"`
	MarketData  MarketData   `yaml:"market_data"`
	Schedule    Schedule     `yaml:"schedule"`
	Engine      Engine       `yaml:"engine"`
	Universe    []Instrument `yaml:"universe" validate:"dive"`
}

type Log struct {
	Level           string        `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format          string        `yaml:"format" default:"console" validate:"oneof=json console"`
	Output          string        `yaml:"output" default:"stdout"`
	CollectWarnings bool          `yaml:"collect_warnings"`
	FlushInterval   time.Duration `yaml:"flush_interval" default:"30s"`
	FlushThreshold  int           `yaml:"flush_threshold" default:"100"`
}

type Server struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"25s"`
	CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	RateLimit       RateLimit     `yaml:"rate_limit"`
}

type RateLimit struct {
	Enabled bool    `yaml:"enabled" default:"true"`
	RPS     float64 `yaml:"rps" default:"5" validate:"gte=0"`
	Burst   int     `yaml:"burst" default:"20" validate:"gte=0"`
	// IdleTTL drops per-client limiters that have not been used for this long.
	IdleTTL time.Duration `yaml:"idle_ttl" default:"10m"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type Backend struct {
	Type         string        `yaml:"type" default:"clickhouse" validate:"oneof=kafka clickhouse"`
	BatchSize    int           `yaml:"batch_size" default:"500" validate:"gt=0"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
}

type Kafka struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
	Topics       struct {
		Bars   string `yaml:"bars" default:"etf.bars.daily"`
		Events string `yaml:"events" default:"etf.advisor.events"`
		Logs   string `yaml:"logs" default:"etf.advisor.logs"`
	} `yaml:"topics"`
	Producer struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"50ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled    bool          `yaml:"enabled"`
		GroupID    string        `yaml:"group_id" default:"etf-advisor-bars"`
		Workers    int           `yaml:"workers" default:"2" validate:"gt=0"`
		BufferSize int           `yaml:"buffer_size" default:"256"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"etf.bars.dlq"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

type ClickHouse struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"etf"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
}

type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"etf"`
	PoolSize int    `yaml:"pool_size" default:"10"`
}

type MarketData struct {
	Source        string        `yaml:"source" default:"yahoo" validate:"oneof=yahoo clickhouse"`
	Hosts         []string      `yaml:"hosts" default:"[\"https://query1.finance.yahoo.com\",\"https://query2.finance.yahoo.com\"]" validate:"min=1,dive,url"`
	UserAgent     string        `yaml:"user_agent" default:"Mozilla/5.0 (compatible; etf-advisor/1.0)"`
	Timeout       time.Duration `yaml:"timeout" default:"10s"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" default:"20s"`
	Concurrency   int           `yaml:"concurrency" default:"4" validate:"gt=0"`
	RPS           float64       `yaml:"rps" default:"2" validate:"gt=0"`
	Burst         int           `yaml:"burst" default:"4" validate:"gt=0"`
	Retries       int           `yaml:"retries" default:"2" validate:"gte=0"`
	CacheTTL      time.Duration `yaml:"cache_ttl" default:"5m"`
	HistoryRange  string        `yaml:"history_range" default:"1y" validate:"oneof=5d 1mo 3mo 6mo 1y 2y"`
	IndexSymbol   string        `yaml:"index_symbol" default:"^TWII"`
	VolatilitySym string        `yaml:"volatility_symbol" default:"^VIX"`
	MacroLight    string        `yaml:"macro_light" default:"green"`
	Breaker       struct {
		MaxRequests uint32        `yaml:"max_requests" default:"1"`
		Interval    time.Duration `yaml:"interval" default:"60s"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		Failures    uint32        `yaml:"failures" default:"5"`
	} `yaml:"breaker"`
}

type Schedule struct {
	Enabled    bool          `yaml:"enabled" default:"true"`
	Timezone   string        `yaml:"timezone" default:"Asia/Taipei"`
	IngestCron string        `yaml:"ingest_cron" default:"35 13 * * 1-5"`
	FeedCron   string        `yaml:"feed_cron" default:"*/5 9-13 * * 1-5"`
	LockTTL    time.Duration `yaml:"lock_ttl" default:"10m"`
}

// Engine mirrors the tunable thresholds of the scoring engine.
type Engine struct {
	ShortWindow        int     `yaml:"short_window" default:"5" validate:"gt=0"`
	LongWindow         int     `yaml:"long_window" default:"20" validate:"gtfield=ShortWindow"`
	RSIWindow          int     `yaml:"rsi_window" default:"14" validate:"gt=0"`
	PercentileLookback int     `yaml:"percentile_lookback" default:"250" validate:"gt=0"`
	Weights            Weights `yaml:"weights"`
	MinScore           float64 `yaml:"min_score" default:"50" validate:"gte=0,lte=100"`
	ConcentrationCap   float64 `yaml:"concentration_cap" default:"0.35" validate:"gt=0,lte=1"`
	LotSize            int64   `yaml:"lot_size" default:"1" validate:"gt=0"`
	RatioFloor         float64 `yaml:"ratio_floor" default:"0.2" validate:"gte=0,lt=1"`
	RatioCeiling       float64 `yaml:"ratio_ceiling" default:"0.9" validate:"gtfield=RatioFloor,lte=1"`
	DefaultVolatility  float64 `yaml:"default_volatility" default:"20" validate:"gte=0"`
	DefaultMomentum    float64 `yaml:"default_momentum" default:"50" validate:"gte=0,lte=100"`
	RedFraction        float64 `yaml:"red_fraction" default:"0.3" validate:"gte=0,lte=1"`
	VolatilitySpike    float64 `yaml:"volatility_spike" default:"35"`
	OverheatedRSI      float64 `yaml:"overheated_rsi" default:"75"`
	MinDiversification int     `yaml:"min_diversification" default:"3" validate:"gte=0"`
	// Breadth, valuation and exposure alerts.
	GreenFractionHigh      float64 `yaml:"green_fraction_high" default:"0.10" validate:"gte=0,lte=1"`
	GreenFractionMedium    float64 `yaml:"green_fraction_medium" default:"0.20" validate:"gtefield=GreenFractionHigh,lte=1"`
	HighBandFraction       float64 `yaml:"high_band_fraction" default:"0.60" validate:"gte=0,lte=1"`
	MaxCategoryExposure    float64 `yaml:"max_category_exposure" default:"0.50" validate:"gt=0,lte=1"`
	MaxPortfolioVolatility float64 `yaml:"max_portfolio_volatility" default:"0.25" validate:"gt=0"`
}

type Weights struct {
	Trend     float64 `yaml:"trend" default:"0.30" validate:"gte=0"`
	Momentum  float64 `yaml:"momentum" default:"0.25" validate:"gte=0"`
	Valuation float64 `yaml:"valuation" default:"0.30" validate:"gte=0"`
	Liquidity float64 `yaml:"liquidity" default:"0.10" validate:"gte=0"`
	Cost      float64 `yaml:"cost" default:"0.05" validate:"gte=0"`
}

func (w Weights) Sum() float64 {
	return w.Trend + w.Momentum + w.Valuation + w.Liquidity + w.Cost
}

// Instrument is one catalog entry.
type Instrument struct {
	Symbol       string   `yaml:"symbol" validate:"required"`
	Name         string   `yaml:"name" validate:"required"`
	Category     string   `yaml:"category"`
	Suffix       string   `yaml:"suffix" validate:"omitempty,oneof=.TW .TWO"`
	ExpenseRatio *float64 `yaml:"expense_ratio" validate:"omitempty,gte=0,lt=1"`
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv is Load with environment overrides applied before validation.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Default returns the defaults with the built-in universe.
func Default() *Config {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	c.Universe = DefaultUniverse()
	return c
}

func parse(path string) (*Config, error) {
	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if len(c.Universe) == 0 {
		c.Universe = DefaultUniverse()
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("ETF_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("ETF_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = len(c.Kafka.Brokers) > 0
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("MARKET_DATA_SOURCE"); v != "" {
		c.MarketData.Source = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var validate = validator.New()

// Validate runs struct-tag validation plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if math.Abs(c.Engine.Weights.Sum()-1) > 1e-6 {
		return fmt.Errorf("engine.weights must sum to 1, got %.4f", c.Engine.Weights.Sum())
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Backend.Type == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("backend.type kafka requires kafka.enabled")
	}
	if c.Kafka.Consumer.Enabled && (!c.Kafka.Enabled || !c.ClickHouse.Enabled) {
		return fmt.Errorf("kafka.consumer requires kafka.enabled and clickhouse.enabled")
	}
	if c.MarketData.Source == "clickhouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("market_data.source clickhouse requires clickhouse.enabled")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	seen := make(map[string]bool, len(c.Universe))
	for _, in := range c.Universe {
		if seen[in.Symbol] {
			return fmt.Errorf("universe: duplicate symbol %s", in.Symbol)
		}
		seen[in.Symbol] = true
	}
	return nil
}
