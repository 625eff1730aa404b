package raster

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	missingSourceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raster_missing_source_cache_hits_total",
		Help: "The total number of hits on the missing source cache",
	})
	missingSourceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raster_missing_source_cache_misses_total",
		Help: "The total number of misses on the missing source cache",
	})
	sourceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raster_source_cache_hits_total",
		Help: "The total number of hits on the source cache",
	})
	sourceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raster_source_cache_misses_total",
		Help: "The total number of misses on the source cache",
	})
	sourceCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "raster_source_cache_evictions_total",
		Help: "The total number of evictions from the source cache",
	})
)

// A GridSet is a set of GeoTIFF-backed grids on a filesystem. Open sources
// are cached, with the least recently used source closed on eviction, and
// filenames known to be missing are remembered so that repeated lookups do
// not touch the filesystem.
type GridSet struct {
	mutex         sync.Mutex
	fsys          fs.FS
	missing       sync.Map
	sourceOptions []GeoTIFFSourceOption
	cacheSize     int
	sourceCache   *lru.Cache[string, *GeoTIFFSource]
}

// A GridSetOption sets an option on a GridSet.
type GridSetOption func(*GridSet)

// NewGridSet returns a new GridSet with the given options.
func NewGridSet(options ...GridSetOption) (*GridSet, error) {
	s := &GridSet{
		cacheSize: 32,
	}
	for _, option := range options {
		option(s)
	}

	var err error
	s.sourceCache, err = lru.NewWithEvict(s.cacheSize, func(filename string, source *GeoTIFFSource) {
		source.Close()
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func WithCacheSize(cacheSize int) GridSetOption {
	return func(s *GridSet) {
		s.cacheSize = cacheSize
	}
}

func WithFS(fsys fs.FS) GridSetOption {
	return func(s *GridSet) {
		s.fsys = fsys
	}
}

func WithGeoTIFFSourceOptions(sourceOptions ...GeoTIFFSourceOption) GridSetOption {
	return func(s *GridSet) {
		s.sourceOptions = sourceOptions
	}
}

// Grid returns the full grid stored in filename.
func (s *GridSet) Grid(ctx context.Context, filename string) (*Grid, error) {
	source, err := s.getSourceCached(filename)
	if err != nil {
		return nil, err
	}
	return source.Grid(ctx)
}

// Window returns the sub-grid of filename covering target, reading only the
// blocks that overlap it.
func (s *GridSet) Window(ctx context.Context, filename string, target Extent) (*Grid, error) {
	source, err := s.getSourceCached(filename)
	if err != nil {
		return nil, err
	}
	return source.Window(ctx, target)
}

// getSource opens the source at filename.
func (s *GridSet) getSource(filename string) (*GeoTIFFSource, error) {
	source, err := OpenGeoTIFF(s.fsys, filename, s.sourceOptions...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return source, nil
}

// getSourceCached returns the source at filename, using the cache if
// possible.
func (s *GridSet) getSourceCached(filename string) (*GeoTIFFSource, error) {
	if err, ok := s.missing.Load(filename); ok {
		missingSourceCacheHits.Inc()
		return nil, err.(error)
	}

	if source, ok := s.sourceCache.Get(filename); ok {
		sourceCacheHits.Inc()
		return source, nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err, ok := s.missing.Load(filename); ok {
		missingSourceCacheHits.Inc()
		return nil, err.(error)
	}

	if source, ok := s.sourceCache.Get(filename); ok {
		sourceCacheHits.Inc()
		return source, nil
	}

	sourceCacheMisses.Inc()

	source, err := s.getSource(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		missingSourceCacheMisses.Inc()
		s.missing.Store(filename, err)
		return nil, err
	case err != nil:
		return nil, err
	}

	if eviction := s.sourceCache.Add(filename, source); eviction {
		sourceCacheEvictions.Inc()
	}

	return source, nil
}
