package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"StockLens/internal/model"
)

// Config holds all application configuration.
type Config struct {
	App struct {
		Market string `yaml:"market"`
		Period string `yaml:"period"`
	} `yaml:"app"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	HTTP struct {
		TimeoutSeconds    int `yaml:"timeout_seconds"`
		RequestsPerSecond int `yaml:"requests_per_second"`
		MaxRetrySeconds   int `yaml:"max_retry_seconds"`
	} `yaml:"http"`
	DataSource struct {
		Provider         string `yaml:"provider"`
		TwelveDataAPIKey string `yaml:"twelvedata_api_key"`
	} `yaml:"data_source"`
	Fundamentals struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"fundamentals"`
	News struct {
		MarketAuxKey    string         `yaml:"marketaux_key"`
		NewsAPIKey      string         `yaml:"newsapi_key"`
		FinnhubKey      string         `yaml:"finnhub_key"`
		DefaultSource   string         `yaml:"default_source"`
		CacheTTLSeconds int            `yaml:"cache_ttl_seconds"`
		ScrapeSources   []ScrapeSource `yaml:"scrape_sources"`
	} `yaml:"news"`
	Cache struct {
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
	} `yaml:"cache"`
	Database struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
		NewsCron    string `yaml:"news_cron"`
		DigestCron  string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Watchlist struct {
		StateFile string   `yaml:"state_file"`
		Tickers   []string `yaml:"tickers"`
	} `yaml:"watchlist"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Tracing struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"tracing"`
	Proxy string `yaml:"proxy"`
}

// ScrapeSource describes an HTML news page for the scraper provider.
// SearchPath may contain {symbol}.
type ScrapeSource struct {
	Name       string `yaml:"name"`
	BaseURL    string `yaml:"base_url"`
	SearchPath string `yaml:"search_path"`
	Container  string `yaml:"container"`
	Title      string `yaml:"title"`
	Link       string `yaml:"link"`
	Summary    string `yaml:"summary"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file loaded")
	}

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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("STOCKLENS_MARKET", &c.App.Market)
	setString("STOCKLENS_PERIOD", &c.App.Period)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	setString("DATA_PROVIDER", &c.DataSource.Provider)
	setString("TWELVEDATA_API_KEY", &c.DataSource.TwelveDataAPIKey)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("MARKETAUX_API_KEY", &c.News.MarketAuxKey)
	setString("NEWSAPI_KEY", &c.News.NewsAPIKey)
	setString("FINNHUB_API_KEY", &c.News.FinnhubKey)
	setString("REDIS_ADDR", &c.Cache.RedisAddr)
	setString("DB_DRIVER", &c.Database.Driver)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("POSTGRES_DSN", &c.Database.PostgresDSN)
	setString("SERVER_ADDR", &c.Server.Addr)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("CRON_REFRESH", &c.Schedule.RefreshCron)

	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist.Tickers = nil
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.Watchlist.Tickers = append(c.Watchlist.Tickers, t)
			}
		}
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.App.Market == "" {
		c.App.Market = string(model.MarketInternational)
	}
	if c.App.Period == "" {
		c.App.Period = model.DefaultPeriod
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.HTTP.TimeoutSeconds == 0 {
		c.HTTP.TimeoutSeconds = 30
	}
	if c.HTTP.RequestsPerSecond == 0 {
		c.HTTP.RequestsPerSecond = 5
	}
	if c.HTTP.MaxRetrySeconds == 0 {
		c.HTTP.MaxRetrySeconds = 30
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.News.DefaultSource == "" {
		c.News.DefaultSource = "yahoo"
	}
	if c.News.CacheTTLSeconds == 0 {
		c.News.CacheTTLSeconds = 300
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stocklens.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */30 9-16 * * 1-5"
	}
	if c.Schedule.NewsCron == "" {
		c.Schedule.NewsCron = "0 */10 * * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 18 * * 1-5"
	}
	if c.Watchlist.StateFile == "" {
		c.Watchlist.StateFile = "data/watchlist.json"
	}
}

// FundamentalsEnabled defaults to true when unset.
func (c *Config) FundamentalsEnabled() bool {
	return c.Fundamentals.Enabled == nil || *c.Fundamentals.Enabled
}

// TelegramEnabled reports whether both Telegram credentials are present.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all fields hold supported values.
func (c *Config) Validate() error {
	switch model.Market(c.App.Market) {
	case model.MarketInternational, model.MarketIndian:
	default:
		return fmt.Errorf("app.market must be international or indian, got %q", c.App.Market)
	}
	if !model.ValidPeriod(c.App.Period) {
		return fmt.Errorf("app.period must be one of %s", strings.Join(model.Periods, ", "))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	switch c.DataSource.Provider {
	case "yahoo", "financego":
	case "twelvedata":
		if c.DataSource.TwelveDataAPIKey == "" {
			return fmt.Errorf("data_source.twelvedata_api_key is required for the twelvedata provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	switch c.Database.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.HTTP.RequestsPerSecond < 0 || c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("http limits must not be negative")
	}
	for _, s := range c.News.ScrapeSources {
		if s.Name == "" || s.BaseURL == "" || s.Container == "" {
			return fmt.Errorf("news.scrape_sources entries need name, base_url and container")
		}
	}
	return nil
}
