package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexsyn/internal/analysis"
	"github.com/Aman-CERP/indexsyn/internal/config"
	"github.com/Aman-CERP/indexsyn/internal/filter"
	"github.com/Aman-CERP/indexsyn/internal/source"
	"github.com/Aman-CERP/indexsyn/internal/synonym"
)

// loadConfig loads configuration from --config-dir and applies the global
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flags.configDir)
	if err != nil {
		return nil, err
	}
	if changed(cmd, "backend") {
		cfg.Source.Backend = flags.backend
	}
	if changed(cmd, "index") {
		cfg.Source.Index = flags.index
	}
	if changed(cmd, "analyzer") {
		cfg.Analysis.Analyzer = flags.analyzer
	}
	if changed(cmd, "lenient") {
		cfg.Filter.Lenient = flags.lenient
	}
	if changed(cmd, "expand") {
		cfg.Filter.Expand = flags.expand
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

func sourceConfig(cfg *config.Config) source.Config {
	return source.Config{
		Backend:      cfg.Source.Backend,
		Host:         cfg.Source.Host,
		Port:         cfg.Source.Port,
		Username:     cfg.Source.Username,
		Password:     cfg.Source.Password,
		Path:         cfg.Source.Path,
		MaxDocuments: cfg.Source.MaxDocuments,
		Timeout:      cfg.TimeoutDuration(),
	}
}

// bleveAnalyzer resolves name, using the configured tokenizer chain when
// name is the configured analyzer and a tokenizer is set.
func bleveAnalyzer(cfg *config.Config, name string) (*analysis.Bleve, error) {
	if name == cfg.Analysis.Analyzer && cfg.Analysis.Tokenizer != "" {
		return analysis.NewBleveCustom(name, cfg.Analysis.Tokenizer, cfg.Analysis.TokenFilters...)
	}
	return analysis.NewBleve(name)
}

func settings(cfg *config.Config) filter.Settings {
	return filter.Settings{
		Index:    cfg.Source.Index,
		Analyzer: cfg.Analysis.Analyzer,
		Expand:   cfg.Filter.Expand,
		Lenient:  cfg.Filter.Lenient,
	}
}

func newFactory(cfg *config.Config) (*filter.Factory, error) {
	srcCfg := sourceConfig(cfg)
	return filter.NewFactory(
		func() (source.Source, error) { return source.Open(srcCfg) },
		filter.WithAnalyzerResolver(func(name string) (analysis.Analyzer, error) {
			return bleveAnalyzer(cfg, name)
		}),
		filter.WithDefaults(settings(cfg)),
		filter.WithCacheSize(cfg.Filter.CacheSize),
		filter.WithLogger(slog.Default()),
	)
}

// loadMap runs one parse session against the configured source. Unlike
// the filter factory it honours filter.dedup.
func loadMap(ctx context.Context, cfg *config.Config) (*synonym.Map, synonym.Stats, error) {
	a, err := bleveAnalyzer(cfg, cfg.Analysis.Analyzer)
	if err != nil {
		return nil, synonym.Stats{}, err
	}
	src, err := source.Open(sourceConfig(cfg))
	if err != nil {
		return nil, synonym.Stats{}, err
	}
	return synonym.Load(ctx, src, synonym.Options{
		Policy: synonym.Policy{
			Expand:  cfg.Filter.Expand,
			Dedup:   cfg.Filter.Dedup,
			Lenient: cfg.Filter.Lenient,
		},
		Analyzer: a,
		Index:    cfg.Source.Index,
		Logger:   slog.Default(),
	})
}
