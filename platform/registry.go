package platform

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/syssam/dbkit/dialect"
	"github.com/syssam/dbkit/dialect/sql"
)

// NewFunc creates a platform of one engine on an opened driver.
type NewFunc func(drv dialect.Driver, o *Options) (Platform, error)

var (
	registry = make(map[string]NewFunc)
	mu       sync.RWMutex
)

// Register makes an engine available under the dialect name. It is
// called from the init function of the engine package.
func Register(name string, fn NewFunc) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = fn
}

// Dialects returns the names of the registered engines, sorted.
func Dialects() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func lookup(name string) (NewFunc, error) {
	mu.RLock()
	fn, ok := registry[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("platform: unsupported dialect %q (forgotten import?)", name)
	}
	return fn, nil
}

// Open opens a connection pool to dsn and returns the platform of the
// named dialect.
func Open(name, dsn string, opts ...Option) (Platform, error) {
	fn, err := lookup(name)
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	drv, err := OpenDriver(name, dsn, o)
	if err != nil {
		return nil, fmt.Errorf("platform: open %s: %w", name, err)
	}
	p, err := newPlatform(fn, drv, o)
	if err != nil {
		return nil, errors.Join(err, drv.Close())
	}
	return p, nil
}

// FromDriver returns the platform of the driver's dialect on an existing
// driver, such as one created with sql.OpenDB.
func FromDriver(drv *sql.Driver, opts ...Option) (Platform, error) {
	fn, err := lookup(drv.Dialect())
	if err != nil {
		return nil, err
	}
	o := newOptions(opts)
	return newPlatform(fn, wrapDriver(drv, o), o)
}

func newPlatform(fn NewFunc, drv dialect.Driver, o *Options) (Platform, error) {
	p, err := fn(drv, o)
	if err != nil {
		return nil, err
	}
	if o.Cache != nil {
		p = NewCachedIntrospector(p, o.Cache, o.CacheTTL)
	}
	return p, nil
}
