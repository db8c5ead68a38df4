// Package config reads dbkit configuration and table definition files.
//
// A configuration file looks like:
//
//	dialect   = "postgres"
//	dsn       = "postgres://localhost/app?sslmode=disable"
//	pool_size = 10
//
//	[log]
//	level  = "debug"
//	format = "json"
//
//	[stats]
//	enabled        = true
//	slow_threshold = "200ms"
//
//	[cache]
//	enabled = true
//	ttl     = "5m"
//
// The DBKIT_DSN environment variable overrides dsn.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/platform"
)

// EnvDSN is the environment variable overriding the configured DSN.
const EnvDSN = "DBKIT_DSN"

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the configuration of a dbkit connection.
type Config struct {
	Dialect  string `toml:"dialect"`
	DSN      string `toml:"dsn"`
	PoolSize int    `toml:"pool_size"`
	Log      Log    `toml:"log"`
	Stats    Stats  `toml:"stats"`
	Cache    Cache  `toml:"cache"`
}

// Log maps [log].
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Stats maps [stats].
type Stats struct {
	// Enabled counts the statements run per kind.
	Enabled bool `toml:"enabled"`
	// SlowThreshold enables the counters and the slow statement log when
	// positive.
	SlowThreshold time.Duration `toml:"slow_threshold"`
}

// Cache maps [cache].
type Cache struct {
	Enabled bool          `toml:"enabled"`
	TTL     time.Duration `toml:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info", Format: FormatText},
	}
}

// Load reads the configuration file at path and applies the environment
// overrides.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open file %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a configuration from r and applies the environment overrides.
func Parse(r io.Reader) (*Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, fmt.Errorf("config: decode error: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config: unknown keys %v", keys)
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv applies the environment overrides.
func (c *Config) ApplyEnv() {
	if dsn, ok := os.LookupEnv(EnvDSN); ok && dsn != "" {
		c.DSN = dsn
	}
}

// Validate checks the configured values. An empty dialect is accepted
// and left to the caller.
func (c *Config) Validate() error {
	if c.Dialect != "" {
		if _, ok := dialect.CapabilitiesOf(c.Dialect); !ok {
			return fmt.Errorf("config: unsupported dialect %q", c.Dialect)
		}
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("config: negative pool_size %d", c.PoolSize)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Log.Format)
	}
	if c.Stats.SlowThreshold < 0 || c.Cache.TTL < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	return nil
}

func (c *Config) level() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}

// NewLogger returns the logger described by [log], writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	l, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: l}
	if strings.ToLower(c.Log.Format) == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Options returns the platform options of the configuration.
func (c *Config) Options(logger *slog.Logger) []platform.Option {
	opts := []platform.Option{platform.WithLogger(logger)}
	if c.PoolSize > 0 {
		opts = append(opts, platform.WithPoolSize(c.PoolSize))
	}
	if c.Stats.Enabled {
		opts = append(opts, platform.WithStats())
	}
	if c.Stats.SlowThreshold > 0 {
		opts = append(opts, platform.WithSlowThreshold(c.Stats.SlowThreshold))
	}
	if c.Cache.Enabled {
		opts = append(opts, platform.WithCache(dbkit.NewMemoryCache(), c.Cache.TTL))
	}
	return opts
}
