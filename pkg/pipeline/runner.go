package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/choropleth/pkg/cache"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/observability"
)

// Runner encapsulates derivation with memoization and caching.
// The CLI, the server and the explorer all go through a Runner.
//
// The Runner keeps the most recent Result and returns it again while the
// dataset version, feature version and options are unchanged. Replacing the
// dataset (a new version) invalidates the memo. The memo is guarded by a
// mutex so one Runner can serve concurrent HTTP requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	mu      sync.Mutex
	memoKey string
	memo    *Result
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// DeriveWithCacheInfo derives descriptors, reusing the memoized result when
// the inputs are unchanged. The bool reports a memo hit.
func (r *Runner) DeriveWithCacheInfo(ctx context.Context, ds *dataset.Dataset, fs *geo.FeatureSet, opts Options) (*Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, fmt.Errorf("invalid options: %w", err)
	}
	if ds == nil {
		ds = dataset.FromRecords(nil)
	}
	if fs == nil {
		return nil, false, fmt.Errorf("derive: feature set is required")
	}
	key := memoKey(ds, fs, &opts)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.memo != nil && r.memoKey == key {
		r.Logger.Debug("reusing derivation", "dataset", ds.Version, "features", fs.Version)
		return r.memo, true, nil
	}

	res, err := Derive(ctx, ds, fs, opts)
	if err != nil {
		return nil, false, fmt.Errorf("derive: %w", err)
	}
	r.memoKey, r.memo = key, res
	return res, false, nil
}

// Derive is a convenience wrapper that calls DeriveWithCacheInfo and discards the cache hit info.
func (r *Runner) Derive(ctx context.Context, ds *dataset.Dataset, fs *geo.FeatureSet, opts Options) (*Result, error) {
	res, _, err := r.DeriveWithCacheInfo(ctx, ds, fs, opts)
	return res, err
}

// ExportWithCacheInfo returns the JSON Document for the inputs, reading and
// writing the cache. Cache failures are logged and treated as misses.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, ds *dataset.Dataset, fs *geo.FeatureSet, opts Options) ([]byte, CacheInfo, error) {
	var info CacheInfo
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, info, fmt.Errorf("invalid options: %w", err)
	}
	if ds == nil {
		ds = dataset.FromRecords(nil)
	}
	if fs == nil {
		return nil, info, fmt.Errorf("export: feature set is required")
	}

	cacheKey := r.Keyer.DocumentKey(ds.Version, fs.Version, opts.Hash())
	data, hit, err := r.Cache.Get(ctx, cacheKey)
	switch {
	case err != nil:
		r.Logger.Warn("document cache read failed", "error", err)
	case hit && json.Valid(data):
		observability.Cache().OnCacheHit(ctx, "document")
		info.DocumentHit = true
		return data, info, nil
	}
	observability.Cache().OnCacheMiss(ctx, "document")

	res, memoHit, err := r.DeriveWithCacheInfo(ctx, ds, fs, opts)
	if err != nil {
		return nil, info, err
	}
	info.MemoHit = memoHit

	data, err = RenderDocument(res)
	if err != nil {
		return nil, info, fmt.Errorf("render document: %w", err)
	}
	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLDocument); err != nil {
		r.Logger.Warn("document cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "document", len(data))
	}
	return data, info, nil
}

// Export is a convenience wrapper that calls ExportWithCacheInfo and discards the cache hit info.
func (r *Runner) Export(ctx context.Context, ds *dataset.Dataset, fs *geo.FeatureSet, opts Options) ([]byte, error) {
	data, _, err := r.ExportWithCacheInfo(ctx, ds, fs, opts)
	return data, err
}

// Invalidate drops the memoized result.
func (r *Runner) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memoKey, r.memo = "", nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func memoKey(ds *dataset.Dataset, fs *geo.FeatureSet, opts *Options) string {
	return ds.Version + "/" + fs.Version + "/" + opts.Hash()
}
