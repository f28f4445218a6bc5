package filter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/indexsyn/internal/analysis"
	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/source"
	"github.com/Aman-CERP/indexsyn/internal/synonym"
)

// DefaultCacheSize bounds the number of compiled maps kept by a Factory.
const DefaultCacheSize = 32

// Settings identify one synonym filter instance: where its rules come from
// and how they are normalized.
type Settings struct {
	Index    string
	Analyzer string
	Expand   bool
	Lenient  bool
}

func (s Settings) key() string {
	return s.Index + "\x00" + s.Analyzer + "\x00" +
		strconv.FormatBool(s.Expand) + strconv.FormatBool(s.Lenient)
}

// SourceOpener opens a fresh source connection for one build.
type SourceOpener func() (source.Source, error)

// AnalyzerResolver returns the analyzer registered under name.
type AnalyzerResolver func(name string) (analysis.Analyzer, error)

// Factory builds synonym maps per Settings and caches them until Reload.
// It is safe for concurrent use; concurrent requests for the same Settings
// share one build.
type Factory struct {
	open     SourceOpener
	analyzer AnalyzerResolver
	defaults Settings
	logger   *slog.Logger

	mu    sync.Mutex
	cache *lru.Cache[string, *synonym.Map]
	group singleflight.Group
	gen   uint64
}

// Option configures a Factory.
type Option func(*factoryOptions)

type factoryOptions struct {
	analyzer  AnalyzerResolver
	defaults  Settings
	logger    *slog.Logger
	cacheSize int
}

// WithAnalyzerResolver overrides how analyzer names are resolved.
func WithAnalyzerResolver(r AnalyzerResolver) Option {
	return func(o *factoryOptions) { o.analyzer = r }
}

// WithDefaults sets the settings used when a filter definition omits them.
func WithDefaults(s Settings) Option {
	return func(o *factoryOptions) { o.defaults = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *factoryOptions) { o.logger = l }
}

// WithCacheSize bounds the map cache.
func WithCacheSize(n int) Option {
	return func(o *factoryOptions) { o.cacheSize = n }
}

// NewFactory returns a factory that opens a new source with open for every
// build.
func NewFactory(open SourceOpener, opts ...Option) (*Factory, error) {
	o := factoryOptions{
		analyzer: func(name string) (analysis.Analyzer, error) {
			return analysis.NewBleve(name)
		},
		defaults: Settings{
			Index:    synonym.DefaultIndex,
			Analyzer: analysis.DefaultAnalyzer,
			Expand:   true,
		},
		logger:    slog.Default(),
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New[string, *synonym.Map](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create synonym cache: %w", err)
	}
	return &Factory{
		open:     open,
		analyzer: o.analyzer,
		defaults: o.defaults,
		logger:   o.logger,
		cache:    cache,
	}, nil
}

// DefaultSettings returns the settings filters start from.
func (f *Factory) DefaultSettings() Settings {
	return f.defaults
}

// Get returns the compiled map for s, building it on first use. Callers
// joined to one build share it, so the build ignores the cancellation of
// whichever caller started it.
func (f *Factory) Get(ctx context.Context, s Settings) (*synonym.Map, error) {
	key := s.key()

	f.mu.Lock()
	if m, ok := f.cache.Get(key); ok {
		f.mu.Unlock()
		return m, nil
	}
	gen := f.gen
	f.mu.Unlock()

	v, err, _ := f.group.Do(strconv.FormatUint(gen, 10)+"\x00"+key, func() (interface{}, error) {
		f.mu.Lock()
		if m, ok := f.cache.Get(key); ok && f.gen == gen {
			f.mu.Unlock()
			return m, nil
		}
		f.mu.Unlock()

		m, err := f.build(context.WithoutCancel(ctx), s)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		if f.gen == gen {
			f.cache.Add(key, m)
		}
		f.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*synonym.Map), nil
}

// Create returns a filter for s. A map without entries gives a pass-through
// filter.
func (f *Factory) Create(ctx context.Context, s Settings) (*Filter, error) {
	m, err := f.Get(ctx, s)
	if err != nil {
		return nil, err
	}
	return New(m), nil
}

// BuildAll builds the maps for every settings value concurrently. The first
// failure cancels the remaining builds.
func (f *Factory) BuildAll(ctx context.Context, all []Settings) (map[Settings]*synonym.Map, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	var mu sync.Mutex
	out := make(map[Settings]*synonym.Map, len(all))
	for _, s := range all {
		g.Go(func() error {
			m, err := f.Get(ctx, s)
			if err != nil {
				return err
			}
			mu.Lock()
			out[s] = m
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reload drops every cached map. The next Get rebuilds from the source;
// builds already in flight are not cached.
func (f *Factory) Reload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	n := f.cache.Len()
	f.cache.Purge()
	f.logger.Info("synonym_maps_reloaded", slog.Int("dropped", n))
}

// Cached returns the number of cached maps.
func (f *Factory) Cached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache.Len()
}

func (f *Factory) build(ctx context.Context, s Settings) (*synonym.Map, error) {
	fail := func(err error) error {
		return synerrors.BuildFailed(s.Index, err).WithDetail("analyzer", s.Analyzer)
	}

	a, err := f.analyzer(s.Analyzer)
	if err != nil {
		return nil, fail(err)
	}
	src, err := f.open()
	if err != nil {
		return nil, fail(synerrors.SourceFailure(s.Index, err))
	}

	m, stats, err := synonym.Load(ctx, src, synonym.Options{
		// Deduplication is always on for filters.
		Policy:   synonym.Policy{Expand: s.Expand, Dedup: true, Lenient: s.Lenient},
		Analyzer: a,
		Index:    s.Index,
		Logger:   f.logger,
	})
	if err != nil {
		f.logger.Error("synonym_build_failed", attrs(s, err)...)
		return nil, fail(err)
	}

	f.logger.Debug("synonym_filter_ready",
		slog.String("index", s.Index),
		slog.String("analyzer", s.Analyzer),
		slog.Int("loaded", stats.Loaded),
		slog.Int("discarded", stats.Discarded),
		slog.Bool("pass_through", m.Empty()))
	return m, nil
}

func attrs(s Settings, err error) []any {
	return []any{
		slog.String("index", s.Index),
		slog.String("analyzer", s.Analyzer),
		slog.String("error_code", synerrors.GetCode(err)),
		slog.String("error", err.Error()),
	}
}
