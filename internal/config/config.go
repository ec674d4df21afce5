// README: Config loader with env defaults for the gateway, backend client, sync loop, DB, Redis and vendors.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SyncConfig struct {
	Period time.Duration
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Backend BackendConfig
	Sync    SyncConfig
	DB      struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	Maps struct {
		APIKey string
	}
	AI struct {
		GeminiKey string
	}
	Firebase struct {
		ProjectID       string
		CredentialsFile string
		CheckRevoked    bool
	}
	Log      LogConfig
	Currency string
	Recent   struct {
		Limit int
	}
	Quota struct {
		MonthlyDrafts int
	}
}

// Load reads config.yaml from the working directory when present and
// overlays RIDEBOOK_* environment variables (e.g. RIDEBOOK_SYNC_PERIOD).
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("RIDEBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.Backend.BaseURL = strings.TrimRight(v.GetString("backend.base_url"), "/")
	cfg.Backend.Timeout = v.GetDuration("backend.timeout")
	cfg.Sync.Period = v.GetDuration("sync.period")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.Redis.Addr = v.GetString("redis.addr")
	cfg.Maps.APIKey = v.GetString("maps.api_key")
	cfg.AI.GeminiKey = v.GetString("ai.gemini_key")
	cfg.Firebase.ProjectID = v.GetString("firebase.project_id")
	cfg.Firebase.CredentialsFile = v.GetString("firebase.credentials_file")
	cfg.Firebase.CheckRevoked = v.GetBool("firebase.check_revoked")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Currency = v.GetString("currency")
	cfg.Recent.Limit = v.GetInt("recent.limit")
	cfg.Quota.MonthlyDrafts = v.GetInt("quota.monthly_drafts")

	if cfg.Backend.BaseURL == "" {
		return Config{}, errors.New("backend.base_url is required")
	}
	if cfg.Sync.Period <= 0 {
		return Config{}, errors.New("sync.period must be positive")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("backend.base_url", "http://localhost:3000/api")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("sync.period", 10*time.Second)
	v.SetDefault("db.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("ai.gemini_key", "")
	v.SetDefault("firebase.project_id", "")
	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("firebase.check_revoked", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("currency", "USD")
	v.SetDefault("recent.limit", 10)
	v.SetDefault("quota.monthly_drafts", 100)
}
