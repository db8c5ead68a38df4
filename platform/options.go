package platform

import (
	"log/slog"
	"time"

	"github.com/syssam/dbkit"
	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
)

// Options holds the settings applied when opening a platform.
type Options struct {
	Logger *slog.Logger
	// PoolSize bounds the open and idle connections; zero keeps the
	// database/sql defaults.
	PoolSize int
	// Stats counts the statements run by the platform; see Stats.
	Stats bool
	// SlowThreshold enables statistics and logs statements running longer
	// than it.
	SlowThreshold time.Duration
	// Debug logs every statement at debug level.
	Debug    bool
	Cache    dbkit.Cache
	CacheTTL time.Duration
}

// Option configures a platform.
type Option func(*Options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithPoolSize sets the maximum number of open and idle connections.
func WithPoolSize(n int) Option {
	return func(o *Options) {
		o.PoolSize = n
	}
}

// WithSlowThreshold collects query statistics and logs statements slower
// than d.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *Options) {
		o.SlowThreshold = d
	}
}

// WithStats counts the statements run by the platform per kind. The
// counters are read with Stats.
func WithStats() Option {
	return func(o *Options) {
		o.Stats = true
	}
}

// WithDebug logs every statement at debug level.
func WithDebug() Option {
	return func(o *Options) {
		o.Debug = true
	}
}

// WithCache caches table descriptions in c for ttl. A zero ttl never
// expires entries.
func WithCache(c dbkit.Cache, ttl time.Duration) Option {
	return func(o *Options) {
		o.Cache = c
		o.CacheTTL = ttl
	}
}

func newOptions(opts []Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// OpenDriver opens a database/sql connection pool for the named dialect
// and wraps it as the options require.
func OpenDriver(name, dsn string, o *Options) (dialect.Driver, error) {
	drv, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	if db := drv.DB(); db != nil && o.PoolSize > 0 {
		db.SetMaxOpenConns(o.PoolSize)
		db.SetMaxIdleConns(o.PoolSize)
	}
	return wrapDriver(drv, o), nil
}

func wrapDriver(drv *sql.Driver, o *Options) dialect.Driver {
	var d dialect.Driver = drv
	if o.Stats || o.SlowThreshold > 0 {
		d = sql.NewStatsDriver(drv, sql.WithSlowThreshold(o.SlowThreshold), sql.WithSlowQueryLog(o.Logger))
	}
	if o.Debug {
		d = sql.NewDebugDriver(d, o.Logger)
	}
	return d
}

// Stats returns the statement counters of p. It reports false when p was
// opened without WithStats or WithSlowThreshold.
func Stats(p Platform) (sql.StatsSnapshot, bool) {
	s, ok := sql.StatsOf(p.Driver())
	if !ok {
		return sql.StatsSnapshot{}, false
	}
	return s.Snapshot(), true
}
