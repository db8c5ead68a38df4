package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/syssam/dbkit/dialect"
)

// StmtKind classifies the statements run through a driver.
type StmtKind uint8

const (
	// StmtRead is a SELECT or WITH over user tables.
	StmtRead StmtKind = iota
	// StmtWrite is an INSERT, UPDATE, DELETE or REPLACE.
	StmtWrite
	// StmtSchema is a DDL statement: CREATE, ALTER, DROP, COMMENT ON.
	StmtSchema
	// StmtCatalog is an introspection read: PRAGMA, SHOW, or a query over
	// information_schema, pg_catalog, sqlite_master or the version.
	StmtCatalog
	// StmtOther is anything else, such as SET.
	StmtOther

	numStmtKinds
)

var stmtKindNames = [...]string{"read", "write", "schema", "catalog", "other"}

// String returns the lower case name of the kind.
func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return fmt.Sprintf("StmtKind(%d)", k)
}

// catalogMarkers mark a SELECT as a catalog read.
var catalogMarkers = []string{
	"information_schema.", "pg_catalog.", "pg_inherits", "sqlite_master", "sqlite_schema",
	"pragma_", "version()", "server_version", "obj_description", "col_description",
}

// ClassifyStatement returns the kind of a statement from its leading
// keyword and, for reads, the relations it names.
func ClassifyStatement(query string) StmtKind {
	q := strings.TrimLeftFunc(query, unicode.IsSpace)
	end := strings.IndexFunc(q, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(q)
	}
	switch strings.ToUpper(q[:end]) {
	case "SELECT", "WITH":
		lower := strings.ToLower(q)
		for _, m := range catalogMarkers {
			if strings.Contains(lower, m) {
				return StmtCatalog
			}
		}
		return StmtRead
	case "INSERT", "UPDATE", "DELETE", "REPLACE":
		return StmtWrite
	case "CREATE", "ALTER", "DROP", "COMMENT", "RENAME", "TRUNCATE":
		return StmtSchema
	case "PRAGMA", "SHOW", "DESCRIBE", "EXPLAIN":
		return StmtCatalog
	}
	return StmtOther
}

type kindCounters struct {
	count    atomic.Int64
	errors   atomic.Int64
	slow     atomic.Int64
	duration atomic.Int64 // nanoseconds
}

// QueryStats counts the statements of a driver per kind. It is safe for
// concurrent use.
type QueryStats struct {
	kinds [numStmtKinds]kindCounters
}

func (s *QueryStats) record(kind StmtKind, d time.Duration, err error, slow bool) {
	k := &s.kinds[kind]
	k.count.Add(1)
	k.duration.Add(int64(d))
	if err != nil {
		k.errors.Add(1)
	}
	if slow {
		k.slow.Add(1)
	}
}

// Snapshot returns the current counters.
func (s *QueryStats) Snapshot() StatsSnapshot {
	var snap StatsSnapshot
	for i := range s.kinds {
		k := &s.kinds[i]
		*snap.of(StmtKind(i)) = KindStats{
			Statements: k.count.Load(),
			Errors:     k.errors.Load(),
			Slow:       k.slow.Load(),
			Duration:   time.Duration(k.duration.Load()),
		}
	}
	return snap
}

// Reset sets all counters to zero.
func (s *QueryStats) Reset() {
	for i := range s.kinds {
		k := &s.kinds[i]
		k.count.Store(0)
		k.errors.Store(0)
		k.slow.Store(0)
		k.duration.Store(0)
	}
}

// KindStats holds the counters of one statement kind.
type KindStats struct {
	Statements int64         `json:"statements" yaml:"statements"`
	Errors     int64         `json:"errors" yaml:"errors"`
	Slow       int64         `json:"slow" yaml:"slow"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Avg returns the mean statement duration.
func (k KindStats) Avg() time.Duration {
	if k.Statements == 0 {
		return 0
	}
	return k.Duration / time.Duration(k.Statements)
}

func (k *KindStats) add(o KindStats) {
	k.Statements += o.Statements
	k.Errors += o.Errors
	k.Slow += o.Slow
	k.Duration += o.Duration
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	Read    KindStats `json:"read" yaml:"read"`
	Write   KindStats `json:"write" yaml:"write"`
	Schema  KindStats `json:"schema" yaml:"schema"`
	Catalog KindStats `json:"catalog" yaml:"catalog"`
	Other   KindStats `json:"other" yaml:"other"`
}

func (s *StatsSnapshot) of(kind StmtKind) *KindStats {
	switch kind {
	case StmtRead:
		return &s.Read
	case StmtWrite:
		return &s.Write
	case StmtSchema:
		return &s.Schema
	case StmtCatalog:
		return &s.Catalog
	default:
		return &s.Other
	}
}

// Kind returns the counters of one kind.
func (s StatsSnapshot) Kind(kind StmtKind) KindStats { return *s.of(kind) }

// Total sums all kinds.
func (s StatsSnapshot) Total() KindStats {
	var t KindStats
	for k := StmtKind(0); k < numStmtKinds; k++ {
		t.add(s.Kind(k))
	}
	return t
}

// String returns a one line summary.
func (s StatsSnapshot) String() string {
	t := s.Total()
	var b strings.Builder
	for k := StmtKind(0); k < numStmtKinds; k++ {
		fmt.Fprintf(&b, "%s=%d ", k, s.Kind(k).Statements)
	}
	fmt.Fprintf(&b, "errors=%d slow=%d duration=%s avg=%s", t.Errors, t.Slow, t.Duration, t.Avg())
	return b.String()
}

// SlowQueryHook is called for statements running longer than the slow
// threshold.
type SlowQueryHook func(ctx context.Context, kind StmtKind, query string, d time.Duration)

// StatsDriver wraps a Driver and counts its statements per kind.
type StatsDriver struct {
	*Driver
	stats     *QueryStats
	threshold time.Duration
	hook      SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold marks statements running longer than d as slow. Zero
// disables slow statement detection.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow statements at warn level to logger, or to
// slog.Default() if nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, kind StmtKind, query string, d time.Duration) {
		logger.WarnContext(ctx, "slow statement", "kind", kind.String(), "duration", d, "query", query)
	})
}

// NewStatsDriver wraps drv with statement statistics.
//
//	drv := sql.NewStatsDriver(db, sql.WithSlowThreshold(200*time.Millisecond), sql.WithSlowQueryLog(logger))
//	...
//	fmt.Println(drv.QueryStats().Snapshot())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the counters of the driver and its transactions.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// Query implements dialect.Driver.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, start, err)
	return err
}

// Exec implements dialect.Driver.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, start, err)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, start time.Time, err error) {
	elapsed := time.Since(start)
	kind := ClassifyStatement(query)
	slow := d.threshold > 0 && elapsed > d.threshold
	d.stats.record(kind, elapsed, err, slow)
	if slow && d.hook != nil {
		d.hook(ctx, kind, query, elapsed)
	}
}

// Tx starts a transaction whose statements are counted by d.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, drv: d}, nil
}

type statsTx struct {
	dialect.Tx
	drv *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.drv.record(ctx, query, start, err)
	return err
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.drv.record(ctx, query, start, err)
	return err
}

// DebugDriver logs every statement at debug level.
type DebugDriver struct {
	dialect.Driver
	logger *slog.Logger
}

// NewDebugDriver wraps drv with statement logging. It accepts any
// dialect.Driver, so it can be stacked on a StatsDriver. A nil logger
// means slog.Default().
func NewDebugDriver(drv dialect.Driver, logger *slog.Logger) *DebugDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &DebugDriver{Driver: drv, logger: logger}
}

// Unwrap returns the wrapped driver.
func (d *DebugDriver) Unwrap() dialect.Driver { return d.Driver }

// Query implements dialect.Driver.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, d.logger, "query", query, args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec implements dialect.Driver.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, d.logger, "exec", query, args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx implements dialect.Driver.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.logger.DebugContext(ctx, "begin transaction", "dialect", d.Dialect())
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &debugTx{Tx: tx, ctx: ctx, logger: d.logger}, nil
}

func logStatement(ctx context.Context, logger *slog.Logger, op, query string, args any) {
	logger.DebugContext(ctx, op, "kind", ClassifyStatement(query).String(), "query", query, "args", args)
}

type debugTx struct {
	dialect.Tx
	ctx    context.Context
	logger *slog.Logger
}

func (tx *debugTx) Query(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, tx.logger, "tx query", query, args)
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *debugTx) Exec(ctx context.Context, query string, args, v any) error {
	logStatement(ctx, tx.logger, "tx exec", query, args)
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *debugTx) Commit() error {
	tx.logger.DebugContext(tx.ctx, "commit transaction")
	return tx.Tx.Commit()
}

func (tx *debugTx) Rollback() error {
	tx.logger.DebugContext(tx.ctx, "rollback transaction")
	return tx.Tx.Rollback()
}

// StatsOf returns the counters of the StatsDriver in a chain of wrapping
// drivers, if any.
func StatsOf(drv dialect.Driver) (*QueryStats, bool) {
	for drv != nil {
		if s, ok := drv.(*StatsDriver); ok {
			return s.stats, true
		}
		u, ok := drv.(interface{ Unwrap() dialect.Driver })
		if !ok {
			break
		}
		drv = u.Unwrap()
	}
	return nil, false
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
)
