package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

const (
	DefaultGrantType = "account_credentials"
	DefaultTokenURL  = "https://zoom.us/oauth/token"
	DefaultAPIURL    = "https://api.zoom.us/v2"
	DefaultJoinURL   = "http://localhost:8080/session"
	DefaultTimeZone  = "Europe/Amsterdam"
)

type Config struct {
	Zoom ZoomConfig `yaml:"zoom"`
	SDK  SDKConfig  `yaml:"videosdk"`

	JoinBaseURL string `yaml:"join_base_url"`
	TimeZone    string `yaml:"timezone"`

	DatabaseURL string `yaml:"database_url"`
	SQLiteDSN   string `yaml:"sqlite_dsn"`

	WebPort  string `yaml:"web_port"`
	GRPCPort string `yaml:"grpc_port"`
	NATSURL  string `yaml:"nats_url"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`

	Log LogConfig `yaml:"log"`

	// resolved from TimeZone by Load
	Location *time.Location `yaml:"-"`
}

// ZoomConfig holds the server-to-server app credentials used for the
// calendar API.
type ZoomConfig struct {
	GrantType    string `yaml:"grant_type"`
	AccountID    string `yaml:"account_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CalendarID   string `yaml:"calendar_id"`
	TokenURL     string `yaml:"token_url"`
	APIURL       string `yaml:"api_url"`
}

type SDKConfig struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then lets environment variables override individual keys.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	override(&cfg.Zoom.GrantType, "ZOOM_OAUTH_GRANT_TYPE")
	override(&cfg.Zoom.AccountID, "ZOOM_ACCOUNT_ID")
	override(&cfg.Zoom.ClientID, "ZOOM_CLIENT_ID")
	override(&cfg.Zoom.ClientSecret, "ZOOM_CLIENT_SECRET")
	override(&cfg.Zoom.CalendarID, "ZOOM_CALENDAR_ID")
	override(&cfg.Zoom.TokenURL, "ZOOM_OAUTH_URL")
	override(&cfg.Zoom.APIURL, "ZOOM_API_URL")
	override(&cfg.SDK.Key, "ZOOM_VIDEOSDK_KEY")
	override(&cfg.SDK.Secret, "ZOOM_VIDEOSDK_SECRET")
	override(&cfg.JoinBaseURL, "JOIN_BASE_URL")
	override(&cfg.TimeZone, "CALENDAR_TIMEZONE")
	override(&cfg.DatabaseURL, "DATABASE_URL")
	override(&cfg.SQLiteDSN, "SQLITE_DSN")
	override(&cfg.WebPort, "WEB_PORT")
	override(&cfg.GRPCPort, "GRPC_PORT")
	override(&cfg.NATSURL, "NATS_URL")
	override(&cfg.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("LOG_CONSOLE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("LOG_CONSOLE: %w", err)
		}
		cfg.Log.Console = b
	}
	if v := os.Getenv("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}

	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("CALENDAR_TIMEZONE: %w", err)
	}
	cfg.Location = loc
	return cfg, nil
}

func (c *Config) defaults() {
	fallback(&c.Zoom.GrantType, DefaultGrantType)
	fallback(&c.Zoom.TokenURL, DefaultTokenURL)
	fallback(&c.Zoom.APIURL, DefaultAPIURL)
	fallback(&c.JoinBaseURL, DefaultJoinURL)
	fallback(&c.TimeZone, DefaultTimeZone)
	fallback(&c.WebPort, "8080")
	fallback(&c.Log.Level, "info")
	if c.DatabaseURL == "" {
		fallback(&c.SQLiteDSN, "sessions.db")
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
}

func (c *Config) validate() error {
	var missing []string
	required := []struct {
		key string
		val string
	}{
		{"ZOOM_ACCOUNT_ID", c.Zoom.AccountID},
		{"ZOOM_CLIENT_ID", c.Zoom.ClientID},
		{"ZOOM_CLIENT_SECRET", c.Zoom.ClientSecret},
		{"ZOOM_CALENDAR_ID", c.Zoom.CalendarID},
		{"ZOOM_VIDEOSDK_KEY", c.SDK.Key},
		{"ZOOM_VIDEOSDK_SECRET", c.SDK.Secret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func override(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func fallback(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
