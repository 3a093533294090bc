// Package config loads server configuration from a YAML file, command-line
// flags and the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"

	"github.com/lborres/guildhall/pkg/crypto"
)

// Environment variables read when the corresponding key is unset.
const (
	EnvAuthSecret  = "GUILDHALL_AUTH_SECRET"
	EnvDatabaseURL = "DATABASE_URL"
)

type HTTP struct {
	Addr         string `koanf:"addr"`
	BasePath     string `koanf:"base_path"`
	CookieSecure bool   `koanf:"cookie_secure"`
}

type Auth struct {
	Secret              string        `koanf:"secret"`
	TokenTTL            time.Duration `koanf:"token_ttl"`
	Hasher              string        `koanf:"hasher"`
	BcryptCost          int           `koanf:"bcrypt_cost"`
	RevocationCacheSize int           `koanf:"revocation_cache_size"`
	PurgeInterval       time.Duration `koanf:"purge_interval"`
}

type Database struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	ConnectAttempts uint64        `koanf:"connect_attempts"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
}

type Log struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

type Observability struct {
	// Addr is the metrics and probe listener. Empty disables it.
	Addr string `koanf:"addr"`
}

// Config is the complete server configuration.
type Config struct {
	HTTP          HTTP          `koanf:"http"`
	Auth          Auth          `koanf:"auth"`
	Database      Database      `koanf:"database"`
	Log           Log           `koanf:"log"`
	Observability Observability `koanf:"observability"`
}

// Default returns the configuration used for keys no source sets.
func Default() *Config {
	return &Config{
		HTTP: HTTP{
			Addr:     ":3000",
			BasePath: "/api",
		},
		Auth: Auth{
			TokenTTL:            crypto.DefaultTokenTTL,
			Hasher:              crypto.AlgorithmBcrypt,
			BcryptCost:          crypto.DefaultBcryptCost,
			RevocationCacheSize: 10000,
			PurgeInterval:       10 * time.Minute,
		},
		Database: Database{
			MaxConns:        10,
			ConnectAttempts: 5,
			QueryTimeout:    5 * time.Second,
		},
		Log: Log{
			Format: "json",
			Level:  "info",
		},
		Observability: Observability{
			Addr: "127.0.0.1:9100",
		},
	}
}

// RegisterFlags adds one flag per key to fs, named by the key path.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String("http.addr", d.HTTP.Addr, "HTTP listen address")
	fs.String("http.base_path", d.HTTP.BasePath, "path prefix for API routes")
	fs.Bool("http.cookie_secure", d.HTTP.CookieSecure, "mark the session cookie Secure")

	fs.Duration("auth.token_ttl", d.Auth.TokenTTL, "session token lifetime")
	fs.String("auth.hasher", d.Auth.Hasher, "password hasher (bcrypt or argon2id)")
	fs.Int("auth.bcrypt_cost", d.Auth.BcryptCost, "bcrypt work factor")
	fs.Int("auth.revocation_cache_size", d.Auth.RevocationCacheSize, "revoked token ids kept in memory")
	fs.Duration("auth.purge_interval", d.Auth.PurgeInterval, "interval between expired revocation purges")

	fs.String("database.url", d.Database.URL, "PostgreSQL connection URL (default: $"+EnvDatabaseURL+")")
	fs.Int32("database.max_conns", d.Database.MaxConns, "maximum pool connections")
	fs.Uint64("database.connect_attempts", d.Database.ConnectAttempts, "connection attempts before giving up")
	fs.Duration("database.query_timeout", d.Database.QueryTimeout, "per-query timeout")

	fs.String("log.format", d.Log.Format, "log format (json or text)")
	fs.String("log.level", d.Log.Level, "log level (debug, info, warn, error)")

	fs.String("observability.addr", d.Observability.Addr, "metrics/health HTTP address (empty = disabled)")
}

// Load reads path (when non-empty), then flags changed on fs, then the
// environment for secrets still unset. The result is validated.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = os.Getenv(EnvAuthSecret)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(EnvDatabaseURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable by the server.
func (c *Config) Validate() error {
	invalid := oops.Code("CONFIG_INVALID")

	if c.HTTP.Addr == "" {
		return invalid.Errorf("http.addr is required")
	}
	if c.HTTP.BasePath != "" && !strings.HasPrefix(c.HTTP.BasePath, "/") {
		return invalid.Errorf("http.base_path must start with '/', got %q", c.HTTP.BasePath)
	}

	if c.Auth.Secret == "" {
		return invalid.Errorf("auth.secret is required (or set %s)", EnvAuthSecret)
	}
	if len(c.Auth.Secret) < crypto.MinSecretLength {
		return invalid.Errorf("auth.secret must be at least %d bytes", crypto.MinSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return invalid.Errorf("auth.token_ttl must be positive")
	}
	switch c.Auth.Hasher {
	case crypto.AlgorithmBcrypt, crypto.AlgorithmArgon2id:
	default:
		return invalid.Errorf("auth.hasher must be %q or %q, got %q",
			crypto.AlgorithmBcrypt, crypto.AlgorithmArgon2id, c.Auth.Hasher)
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return invalid.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Auth.PurgeInterval <= 0 {
		return invalid.Errorf("auth.purge_interval must be positive")
	}

	if c.Database.URL == "" {
		return invalid.Errorf("database.url is required (or set %s)", EnvDatabaseURL)
	}
	if c.Database.MaxConns <= 0 {
		return invalid.Errorf("database.max_conns must be positive")
	}
	if c.Database.QueryTimeout <= 0 {
		return invalid.Errorf("database.query_timeout must be positive")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}
