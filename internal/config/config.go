// Package config loads application configuration from environment variables,
// a .env file, and an optional config file via viper and godotenv.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	AnimeDB  AnimeDBConfig  `mapstructure:"anime_db"`
	Metadata MetadataConfig `mapstructure:"metadata"`
	SeaDex   SeaDexConfig   `mapstructure:"seadex"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DetailLevel controls how much of the Anime Identity Database is
// downloaded and indexed at startup.
type DetailLevel string

const (
	DetailLevelNone     DetailLevel = "none"
	DetailLevelRequired DetailLevel = "required"
	DetailLevelFull     DetailLevel = "full"
)

// AnimeDBConfig configures the Anime Identity Database's data directory and
// per-source refresh cadence.
type AnimeDBConfig struct {
	LevelOfDetail     DetailLevel   `mapstructure:"level_of_detail"`
	DataDir           string        `mapstructure:"data_dir"`
	CrossRefInterval  time.Duration `mapstructure:"crossref_refresh_interval"`
	OfflineInterval   time.Duration `mapstructure:"offline_refresh_interval"`
	KitsuImdbInterval time.Duration `mapstructure:"kitsu_imdb_refresh_interval"`
	AnitraktInterval  time.Duration `mapstructure:"anitrakt_refresh_interval"`
	AnimeListInterval time.Duration `mapstructure:"animelist_refresh_interval"`
	HTTPHeadTimeout   time.Duration `mapstructure:"http_head_timeout"`
	HTTPGetTimeout    time.Duration `mapstructure:"http_get_timeout"`
}

// MetadataConfig configures external catalog metadata providers.
type MetadataConfig struct {
	TMDBAPIKey     string        `mapstructure:"tmdb_api_key"`
	TMDBBaseURL    string        `mapstructure:"tmdb_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SeaDexConfig configures the SeaDex provider.
type SeaDexConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	EnabledDefault bool          `mapstructure:"enabled_default"`
}

// CacheConfig configures the Shared Cache.
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // "memory" or "badger"
	BadgerDir  string        `mapstructure:"badger_dir"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// Load reads configuration from.env, environment variables, and defaults.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STREAMAGGR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("anime_db.level_of_detail", string(DetailLevelFull))
	v.SetDefault("anime_db.data_dir", defaultDataDir())
	v.SetDefault("anime_db.crossref_refresh_interval", 24*time.Hour)
	v.SetDefault("anime_db.offline_refresh_interval", 24*time.Hour)
	v.SetDefault("anime_db.kitsu_imdb_refresh_interval", 24*time.Hour)
	v.SetDefault("anime_db.anitrakt_refresh_interval", 12*time.Hour)
	v.SetDefault("anime_db.animelist_refresh_interval", 6*time.Hour)
	v.SetDefault("anime_db.http_head_timeout", 15*time.Second)
	v.SetDefault("anime_db.http_get_timeout", 90*time.Second)

	v.SetDefault("metadata.tmdb_base_url", "https://api.themoviedb.org/3")
	v.SetDefault("metadata.request_timeout", 12*time.Second)

	v.SetDefault("seadex.base_url", "https://releases.moe/api")
	v.SetDefault("seadex.request_timeout", 10*time.Second)
	v.SetDefault("seadex.enabled_default", true)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.badger_dir", defaultDataDir()+"/cache")
	v.SetDefault("cache.default_ttl", 15*time.Minute)
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/streamaggr"
	}
	return "./data"
}
