package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Cron       CronConfig       `mapstructure:"cron"`
	Edgar      EdgarConfig      `mapstructure:"edgar"`
	MarketData MarketDataConfig `mapstructure:"market_data"`
	Poller     PollerConfig     `mapstructure:"poller"`
	Filters    FilterConfig     `mapstructure:"filters"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DailyCatchup string `mapstructure:"daily_catchup"`
}

// EdgarConfig configures the filings-archive client. Product and Contact
// form the identification header the archive requires on every request;
// requests without it get blocked upstream.
type EdgarConfig struct {
	DataBaseURL    string        `mapstructure:"data_base_url"`
	ArchiveBaseURL string        `mapstructure:"archive_base_url"`
	Product        string        `mapstructure:"product"`
	Contact        string        `mapstructure:"contact"`
	RequestsPerSec int           `mapstructure:"requests_per_sec"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type MarketDataConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type PollerConfig struct {
	Interval            time.Duration `mapstructure:"interval"`
	HealthCheckInterval time.Duration `mapstructure:"health_check_interval"`
	StalenessThreshold  time.Duration `mapstructure:"staleness_threshold"`
	BatchTTL            time.Duration `mapstructure:"batch_ttl"`
	FormType            string        `mapstructure:"form_type"`
	FeedPageSize        int           `mapstructure:"feed_page_size"`
	StartMaxRetries     int           `mapstructure:"start_max_retries"`
}

// FilterConfig holds the bootstrap admission-filter defaults. The live
// snapshot is read from the settings store each cycle; these values seed it
// when the store has no row yet.
type FilterConfig struct {
	MinMarketCap                float64  `mapstructure:"min_market_cap"`
	OptionsDealThresholdPercent float64  `mapstructure:"options_deal_threshold_percent"`
	MinTransactionValue         float64  `mapstructure:"min_transaction_value"`
	PreviousDayOnly             bool     `mapstructure:"previous_day_only"`
	AllowedInsiderTitles        []string `mapstructure:"allowed_insider_titles"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.daily_catchup", "@every 6h")
	v.SetDefault("edgar.data_base_url", "https://data.sec.gov")
	v.SetDefault("edgar.archive_base_url", "https://www.sec.gov")
	v.SetDefault("edgar.product", "insiderwatch")
	v.SetDefault("edgar.contact", "ops@insiderwatch.dev")
	v.SetDefault("edgar.requests_per_sec", 8)
	v.SetDefault("edgar.timeout", "30s")
	v.SetDefault("market_data.base_url", "https://finnhub.io/api/v1")
	v.SetDefault("market_data.timeout", "10s")
	v.SetDefault("poller.interval", "5m")
	v.SetDefault("poller.health_check_interval", "2m")
	v.SetDefault("poller.staleness_threshold", "10m")
	v.SetDefault("poller.batch_ttl", "1h")
	v.SetDefault("poller.form_type", "4")
	v.SetDefault("poller.feed_page_size", 40)
	v.SetDefault("poller.start_max_retries", 3)
	v.SetDefault("filters.min_market_cap", 500)
	v.SetDefault("filters.options_deal_threshold_percent", 15)
	v.SetDefault("filters.min_transaction_value", 0)
	v.SetDefault("filters.previous_day_only", false)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
