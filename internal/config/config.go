// Package config loads the demo binary's configuration: defaults, then an
// optional YAML file, then ENTITYCACHE_* environment variables (a .env file in
// the working directory is read first when present).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "ENTITYCACHE_"

type Config struct {
	Registry string  `yaml:"registry"`
	Session  Session `yaml:"session"`
	Archive  Archive `yaml:"archive"`
	Log      Log     `yaml:"log"`
	HTTP     HTTP    `yaml:"http"`
}

type Session struct {
	ID          string `yaml:"id"`
	RecentLimit int    `yaml:"recent_limit"`
}

type Archive struct {
	Provider    string        `yaml:"provider"` // none | bigcache | ristretto | redis
	Codec       string        `yaml:"codec"`    // json | cbor | msgpack
	Namespace   string        `yaml:"namespace"`
	TTL         time.Duration `yaml:"ttl"`
	SaveTimeout time.Duration `yaml:"save_timeout"`
	RedisAddr   string        `yaml:"redis_addr"`
}

type Log struct {
	Backend string `yaml:"backend"` // zap | logrus | zerolog | slog
	Level   string `yaml:"level"`   // debug | info | warn | error
}

type HTTP struct {
	Addr string `yaml:"addr"` // "" disables the debug server
}

func Default() Config {
	return Config{
		Registry: "demo",
		Session:  Session{RecentLimit: 6},
		Archive: Archive{
			Provider:    "bigcache",
			Codec:       "json",
			Namespace:   "entitydemo",
			SaveTimeout: 2 * time.Second,
			RedisAddr:   "localhost:6379",
		},
		Log: Log{Backend: "zap", Level: "info"},
	}
}

// Load builds the config. path may be empty; a missing .env is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	str("REGISTRY", &c.Registry)
	str("SESSION_ID", &c.Session.ID)
	str("ARCHIVE_PROVIDER", &c.Archive.Provider)
	str("ARCHIVE_CODEC", &c.Archive.Codec)
	str("ARCHIVE_NAMESPACE", &c.Archive.Namespace)
	str("REDIS_ADDR", &c.Archive.RedisAddr)
	str("LOG_BACKEND", &c.Log.Backend)
	str("LOG_LEVEL", &c.Log.Level)
	str("HTTP_ADDR", &c.HTTP.Addr)

	if v, ok := lookup(envPrefix + "RECENT_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sRECENT_LIMIT: %w", envPrefix, err)
		}
		c.Session.RecentLimit = n
	}
	for name, dst := range map[string]*time.Duration{
		"ARCHIVE_TTL":          &c.Archive.TTL,
		"ARCHIVE_SAVE_TIMEOUT": &c.Archive.SaveTimeout,
	} {
		if v, ok := lookup(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.Session.RecentLimit < 0 {
		return fmt.Errorf("config: session.recent_limit must be >= 0 (got %d)", c.Session.RecentLimit)
	}
	switch c.Archive.Provider {
	case "none", "bigcache", "ristretto", "redis":
	default:
		return fmt.Errorf("config: unknown archive provider %q", c.Archive.Provider)
	}
	switch c.Archive.Codec {
	case "json", "cbor", "msgpack":
	default:
		return fmt.Errorf("config: unknown archive codec %q", c.Archive.Codec)
	}
	switch c.Log.Backend {
	case "zap", "logrus", "zerolog", "slog":
	default:
		return fmt.Errorf("config: unknown log backend %q", c.Log.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return nil
}
