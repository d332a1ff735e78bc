// Package config は.env、任意のYAMLファイル、環境変数の順にアプリケーション設定を読み込みます
// （後のものほど優先）。
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultAdminEmail は起動時に作成される固定の管理者アカウントです。
	DefaultAdminEmail = "admin@qrupees.com"
	// DefaultAdminPassword はADMIN_PASSWORDが未設定の場合のみ使われます。
	DefaultAdminPassword = "adminpass"

	defaultBaseURL   = "https://www.nepalstock.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// ノーマライザーが扱うペイロード形式
const (
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Market.Resources のキーとなるリソース名
const (
	ResourceCompanies   = "companies"
	ResourceDailyPrices = "daily_prices"
	ResourceHistory     = "history"
)

// Endpoint は論理リソースを上流ホスト上のパスと現在のペイロード形式に対応付けます。
type Endpoint struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// Config はアプリケーション全体の設定を保持します。
type Config struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"` // 空なら全オリジンを許可
	} `yaml:"server"`

	Market struct {
		BaseURL            string              `yaml:"base_url"`
		UserAgent          string              `yaml:"user_agent"`
		Timeout            time.Duration       `yaml:"timeout"`
		InsecureSkipVerify *bool               `yaml:"insecure_skip_verify"` // nilはtrue扱い
		HistoryContainer   string              `yaml:"history_container"`
		HistoryLimit       int                 `yaml:"history_limit"`
		RequestsPerMinute  int                 `yaml:"requests_per_minute"` // 0でペーシング無効
		CacheTTL           time.Duration       `yaml:"cache_ttl"`
		Resources          map[string]Endpoint `yaml:"resources"`
	} `yaml:"market"`

	Database struct {
		Driver string `yaml:"driver"` // sqlite または postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Sheets struct {
		CredentialsFile string `yaml:"credentials_file"`
		CredentialsJSON string `yaml:"-"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
	} `yaml:"sheets"`

	Redis struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		Password string `yaml:"-"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret     string        `yaml:"-"`
		TokenTTL      time.Duration `yaml:"token_ttl"`
		AdminEmail    string        `yaml:"admin_email"`
		AdminPassword string        `yaml:"-"`
	} `yaml:"auth"`

	LogLevel string `yaml:"log_level"`
}

// Load は.env（存在すれば）、pathのYAMLファイル（存在すれば）の順に読み込み、
// 環境変数による上書きとデフォルト値を適用します。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug(".env not found; using system environment variables")
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
	setString(&c.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	setString(&c.Market.BaseURL, "NEPSE_BASE_URL")
	setString(&c.Market.UserAgent, "NEPSE_USER_AGENT")
	setDuration(&c.Market.Timeout, "NEPSE_TIMEOUT")
	setDuration(&c.Market.CacheTTL, "MARKET_CACHE_TTL")
	if v := os.Getenv("NEPSE_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Market.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("NEPSE_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Market.InsecureSkipVerify = &b
		}
	}
	if v := os.Getenv("NEPSE_DAILY_PRICES_FORMAT"); v != "" {
		if c.Market.Resources == nil {
			c.Market.Resources = map[string]Endpoint{}
		}
		ep := c.Market.Resources[ResourceDailyPrices]
		ep.Format = strings.ToLower(v)
		c.Market.Resources[ResourceDailyPrices] = ep
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")

	setString(&c.Sheets.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Sheets.CredentialsJSON, "GCP_SERVICE_ACCOUNT_JSON")
	setString(&c.Sheets.SpreadsheetID, "SHEETS_SPREADSHEET_ID")

	setString(&c.Redis.Host, "REDIS_HOST")
	setString(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setDuration(&c.Auth.TokenTTL, "JWT_TTL")
	setString(&c.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&c.Auth.AdminPassword, "ADMIN_PASSWORD")

	setString(&c.LogLevel, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = defaultBaseURL
	}
	if c.Market.UserAgent == "" {
		c.Market.UserAgent = defaultUserAgent
	}
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = 10 * time.Second
	}
	if c.Market.InsecureSkipVerify == nil {
		// 取引所の証明書チェーンは検証に通らない
		skip := true
		c.Market.InsecureSkipVerify = &skip
	}
	if c.Market.HistoryContainer == "" {
		c.Market.HistoryContainer = "hydra:member"
	}
	if c.Market.HistoryLimit <= 0 {
		c.Market.HistoryLimit = 5000
	}
	if c.Market.CacheTTL <= 0 {
		c.Market.CacheTTL = 60 * time.Second
	}
	if c.Market.Resources == nil {
		c.Market.Resources = map[string]Endpoint{}
	}
	defaults := map[string]Endpoint{
		ResourceCompanies:   {Path: "/company", Format: FormatHTML},
		ResourceDailyPrices: {Path: "/today-price", Format: FormatHTML},
		ResourceHistory:     {Path: "/company/transaction-history", Format: FormatJSON},
	}
	for name, def := range defaults {
		ep := c.Market.Resources[name]
		if ep.Path == "" {
			// CSVエクスポートはHTMLページとは別パス
			if name == ResourceDailyPrices && ep.Format == FormatCSV {
				ep.Path = "/todaysprice/export"
			} else {
				ep.Path = def.Path
			}
		}
		if ep.Format == "" {
			ep.Format = def.Format
		}
		c.Market.Resources[name] = ep
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "qrupees.db"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Auth.AdminEmail == "" {
		c.Auth.AdminEmail = DefaultAdminEmail
	}
	if c.Auth.AdminPassword == "" {
		c.Auth.AdminPassword = DefaultAdminPassword
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate は設定値が使用可能かチェックします。
func (c *Config) Validate() error {
	for name, ep := range c.Market.Resources {
		switch ep.Format {
		case FormatHTML, FormatCSV, FormatJSON:
		default:
			return fmt.Errorf("market.resources.%s.format %q is not one of html, csv, json", name, ep.Format)
		}
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for postgres")
	}
	return nil
}

// RemoteStoreConfigured はスプレッドシートの認証情報が設定されているかを返します。
func (c *Config) RemoteStoreConfigured() bool {
	return c.Sheets.SpreadsheetID != "" && (c.Sheets.CredentialsJSON != "" || c.Sheets.CredentialsFile != "")
}

// SkipTLSVerify は上流の証明書検証を無効にするかを返します。
func (c *Config) SkipTLSVerify() bool {
	return c.Market.InsecureSkipVerify == nil || *c.Market.InsecureSkipVerify
}

// RedisConfigured はRedisホストが指定されているかを返します。
func (c *Config) RedisConfigured() bool {
	return c.Redis.Host != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("ignoring invalid duration", "key", key, "value", v, "error", err)
		return
	}
	*dst = d
}
