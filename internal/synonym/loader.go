package synonym

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/source"
)

// ParseSource reads every document of the session index from src and
// parses each field value as rule text. A missing index is logged and
// leaves the session empty. src is closed before returning.
func (p *Parser) ParseSource(ctx context.Context, src source.Source) error {
	defer func() {
		if err := src.Close(); err != nil {
			p.logger.Warn("synonym_source_close_failed",
				slog.String("index", p.index),
				slog.String("error", err.Error()))
		}
	}()

	if p.err != nil {
		return p.err
	}

	exists, err := src.Exists(ctx, p.index)
	if err != nil {
		return p.fail(synerrors.SourceFailure(p.index, err))
	}
	if !exists {
		p.logger.Warn("synonym_index_missing", attrs(synerrors.SourceUnavailable(p.index))...)
		return nil
	}

	docs, err := src.SearchAll(ctx, p.index)
	if err != nil {
		return p.fail(synerrors.SourceFailure(p.index, err))
	}

	before := p.loaded
	for _, doc := range docs {
		blobs, err := source.Blobs(doc)
		if errors.Is(err, source.ErrNestedField) {
			return p.fail(synerrors.NestedFieldError(p.index, err))
		}
		if err != nil {
			return p.fail(err)
		}
		for _, blob := range blobs {
			if err := p.ParseText(blob); err != nil {
				return err
			}
		}
	}

	p.logger.Info("synonym_rules_loaded",
		slog.String("index", p.index),
		slog.Int("documents", len(docs)),
		slog.Int("count", p.loaded-before))
	return nil
}

// Load runs a complete session against src and compiles the result.
func Load(ctx context.Context, src source.Source, opts Options) (*Map, Stats, error) {
	p, err := NewParser(opts)
	if err != nil {
		_ = src.Close()
		return nil, Stats{}, err
	}
	if err := p.ParseSource(ctx, src); err != nil {
		return nil, p.Stats(), err
	}
	m, err := p.Build()
	return m, p.Stats(), err
}

func attrs(err error) []any {
	fields := synerrors.FormatForLog(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}
