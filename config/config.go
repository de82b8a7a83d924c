package config

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
)

const (
	DefaultTargetApp = "Spotify.exe"
	DefaultBackend   = "sim"
	DefaultAddr      = ":8080"
	DefaultCacheSize = 32
)

type Config struct {
	Mediamon  MediamonConfig
	Server    ServerConfig
	Thumbnail ThumbnailConfig
	Sim       SimConfig
}

type MediamonConfig struct {
	Backend           string `env:"MEDIAMON_BACKEND"`
	LogLevel          string `env:"LOG_LEVEL"`
	TargetApp         string `env:"MEDIAMON_TARGET_APP"`
	TimelineRefreshMs int    `env:"MEDIAMON_TIMELINE_REFRESH_MS"`
}

type ServerConfig struct {
	Addr           string `env:"MEDIAMON_ADDR"`
	AllowedOrigins string `env:"MEDIAMON_ALLOWED_ORIGINS"`
}

type ThumbnailConfig struct {
	CacheSize int `env:"MEDIAMON_THUMBNAIL_CACHE_SIZE"`
}

type SimConfig struct {
	Artwork string `env:"MEDIAMON_SIM_ARTWORK"`
	PID     int    `env:"MEDIAMON_SIM_PID"`
}

// Load reads the environment into a Config. Anything left unset gets its default.
func Load() (Config, error) {
	var cfg Config
	err := config.New().AddFeeder(feeder.Env{}).AddStruct(&cfg).Feed()
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mediamon.Backend == "" {
		c.Mediamon.Backend = DefaultBackend
	}
	if c.Mediamon.TargetApp == "" {
		c.Mediamon.TargetApp = DefaultTargetApp
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Thumbnail.CacheSize <= 0 {
		c.Thumbnail.CacheSize = DefaultCacheSize
	}
}

// TimelineRefreshInterval is zero when periodic timeline refreshes are disabled.
func (c *Config) TimelineRefreshInterval() time.Duration {
	if c.Mediamon.TimelineRefreshMs <= 0 {
		return 0
	}
	return time.Duration(c.Mediamon.TimelineRefreshMs) * time.Millisecond
}

// Origins splits the comma separated CORS allow list. Localhost is allowed when unset.
func (s ServerConfig) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(s.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"http://localhost:1420", "http://localhost:8080", "tauri://localhost"}
	}
	return origins
}

// BackendOptions are handed to mediactl.Open.
func (c *Config) BackendOptions() map[string]string {
	opts := map[string]string{"app": c.Mediamon.TargetApp}
	if c.Sim.Artwork != "" {
		opts["artwork"] = c.Sim.Artwork
	}
	if c.Sim.PID > 0 {
		opts["pid"] = strconv.Itoa(c.Sim.PID)
	}
	return opts
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Mediamon.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" || logLevel == "warn" {
		return slog.LevelWarn
	}
	if logLevel == "info" || logLevel == "" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
