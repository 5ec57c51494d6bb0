package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"session-scheduler/internal/config"
)

var required = map[string]string{
	"ZOOM_ACCOUNT_ID":      "acct",
	"ZOOM_CLIENT_ID":       "client",
	"ZOOM_CLIENT_SECRET":   "secret",
	"ZOOM_CALENDAR_ID":     "host@example.com",
	"ZOOM_VIDEOSDK_KEY":    "sdk-key",
	"ZOOM_VIDEOSDK_SECRET": "sdk-secret",
}

// clearEnv blanks every key Load looks at so the host environment can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "ZOOM_OAUTH_GRANT_TYPE", "ZOOM_ACCOUNT_ID", "ZOOM_CLIENT_ID",
		"ZOOM_CLIENT_SECRET", "ZOOM_CALENDAR_ID", "ZOOM_OAUTH_URL", "ZOOM_API_URL",
		"ZOOM_VIDEOSDK_KEY", "ZOOM_VIDEOSDK_SECRET", "JOIN_BASE_URL", "CALENDAR_TIMEZONE",
		"DATABASE_URL", "SQLITE_DSN", "WEB_PORT", "GRPC_PORT", "NATS_URL",
		"LOG_LEVEL", "LOG_CONSOLE", "HTTP_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	// keep a stray .env in the package dir out of the picture
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	for k, v := range required {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zoom.GrantType != config.DefaultGrantType {
		t.Errorf("grant type: got %q", cfg.Zoom.GrantType)
	}
	if cfg.Zoom.TokenURL != config.DefaultTokenURL || cfg.Zoom.APIURL != config.DefaultAPIURL {
		t.Errorf("urls: got %q %q", cfg.Zoom.TokenURL, cfg.Zoom.APIURL)
	}
	if cfg.SQLiteDSN != "sessions.db" {
		t.Errorf("sqlite dsn: got %q", cfg.SQLiteDSN)
	}
	if cfg.WebPort != "8080" {
		t.Errorf("web port: got %q", cfg.WebPort)
	}
	if cfg.Location == nil || cfg.Location.String() != config.DefaultTimeZone {
		t.Errorf("location: got %v", cfg.Location)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("http timeout: got %v", cfg.HTTPTimeout)
	}
}

func TestLoadMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("ZOOM_ACCOUNT_ID", "acct")

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, k := range []string{"ZOOM_CLIENT_ID", "ZOOM_VIDEOSDK_SECRET"} {
		if !strings.Contains(err.Error(), k) {
			t.Errorf("error %q does not name %s", err, k)
		}
	}
	if strings.Contains(err.Error(), "ZOOM_ACCOUNT_ID") {
		t.Errorf("error %q names a key that was set", err)
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
zoom:
  account_id: yaml-acct
  client_id: yaml-client
  client_secret: yaml-secret
  calendar_id: yaml-host@example.com
videosdk:
  key: yaml-key
  secret: yaml-sdk-secret
timezone: UTC
http_timeout: 3s
log:
  level: debug
  console: true
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ZOOM_CLIENT_ID", "env-client")
	t.Setenv("DATABASE_URL", "postgres://localhost/x")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zoom.ClientID != "env-client" {
		t.Errorf("env should override yaml, got %q", cfg.Zoom.ClientID)
	}
	if cfg.Zoom.AccountID != "yaml-acct" {
		t.Errorf("account id: got %q", cfg.Zoom.AccountID)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("http timeout: got %v", cfg.HTTPTimeout)
	}
	if !cfg.Log.Console || cfg.Log.Level != "debug" {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.SQLiteDSN != "" {
		t.Errorf("sqlite dsn should stay empty with DATABASE_URL set, got %q", cfg.SQLiteDSN)
	}
	if cfg.Location != time.UTC {
		t.Errorf("location: got %v", cfg.Location)
	}
}

func TestLoadBadTimeZone(t *testing.T) {
	clearEnv(t)
	for k, v := range required {
		t.Setenv(k, v)
	}
	t.Setenv("CALENDAR_TIMEZONE", "Nowhere/Special")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}
