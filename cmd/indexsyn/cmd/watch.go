package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexsyn/internal/config"
	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/filter"
	"github.com/Aman-CERP/indexsyn/internal/output"
	"github.com/Aman-CERP/indexsyn/internal/source"
	"github.com/Aman-CERP/indexsyn/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild synonyms when the local source changes",
		Long: `Build the synonym map, then watch the local source and rebuild
after every change. Rapid changes are debounced (watch.debounce).
Failed rebuilds are reported and the watch continues.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, cfg)
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	opts, err := watchOptions(cfg)
	if err != nil {
		return err
	}
	factory, err := newFactory(cfg)
	if err != nil {
		return err
	}

	w, err := watcher.New(opts)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	out := output.New(cmd.OutOrStdout())
	s := settings(cfg)
	rebuild(ctx, out, factory, s, nil)

	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()
	out.Statusf("*", "Watching %s", w.Root())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		case err := <-w.Errors():
			slog.Warn("watch_error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			factory.Reload()
			rebuild(ctx, out, factory, s, batch)
		}
	}
}

func rebuild(ctx context.Context, out *output.Writer, factory *filter.Factory, s filter.Settings, batch []watcher.FileEvent) {
	paths := make([]string, len(batch))
	for i, ev := range batch {
		paths[i] = ev.Path
	}

	m, err := factory.Get(ctx, s)
	if err != nil {
		slog.Error("synonym_rebuild_failed", slog.String("error_code", synerrors.GetCode(err)), slog.String("error", err.Error()))
		out.Errorf("Rebuild failed: %v", err)
		return
	}
	slog.Info("synonym_rebuilt",
		slog.String("index", s.Index),
		slog.Int("entries", m.Len()),
		slog.Any("changed", paths))
	out.Successf("Built %d synonym entries from %s", m.Len(), s.Index)
}

// watchOptions picks the directory to watch and the paths that belong to
// the configured index.
func watchOptions(cfg *config.Config) (watcher.Options, error) {
	if cfg.Source.Path == "" {
		return watcher.Options{}, fmt.Errorf("watch needs a local source with source.path set")
	}
	opts := watcher.Options{
		Debounce: cfg.DebounceDuration(),
		Logger:   slog.Default(),
	}
	index := cfg.Source.Index
	switch cfg.Source.Backend {
	case source.BackendFiles:
		opts.Root = cfg.Source.Path
		opts.Match = func(rel string) bool {
			return strings.HasPrefix(rel, index+string(filepath.Separator)) && source.IsDocumentFile(rel)
		}
	case source.BackendBleve:
		opts.Root = cfg.Source.Path
		opts.Match = func(rel string) bool {
			return strings.HasPrefix(rel, index+".bleve")
		}
	case source.BackendSQLite:
		opts.Root = filepath.Dir(cfg.Source.Path)
		db := filepath.Base(cfg.Source.Path)
		opts.Match = func(rel string) bool {
			return strings.HasPrefix(rel, db)
		}
	default:
		return watcher.Options{}, fmt.Errorf("backend %s cannot be watched", cfg.Source.Backend)
	}
	return opts, nil
}
