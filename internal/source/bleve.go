package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Bleve keeps each synonym index as a bleve index under a directory
// (<dir>/<index>.bleve). An empty dir keeps indexes in memory.
type Bleve struct {
	dir     string
	maxDocs int

	mu      sync.Mutex
	indexes map[string]bleve.Index
}

// NewBleve returns a bleve-backed source rooted at dir.
func NewBleve(dir string, maxDocs int) *Bleve {
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocuments
	}
	return &Bleve{dir: dir, maxDocs: maxDocs, indexes: make(map[string]bleve.Index)}
}

func (b *Bleve) indexPath(index string) string {
	return filepath.Join(b.dir, index+".bleve")
}

// open returns the named index, opening it from disk if needed.
// A missing index yields (nil, nil).
func (b *Bleve) open(index string) (bleve.Index, error) {
	if idx, ok := b.indexes[index]; ok {
		return idx, nil
	}
	if b.dir == "" {
		return nil, nil
	}
	idx, err := bleve.Open(b.indexPath(index))
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open bleve index %s: %w", index, err)
	}
	b.indexes[index] = idx
	return idx, nil
}

// Exists implements Source.
func (b *Bleve) Exists(_ context.Context, index string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, err := b.open(index)
	return idx != nil, err
}

// SearchAll implements Source. Fields come back in name order.
func (b *Bleve) SearchAll(ctx context.Context, index string) ([]Document, error) {
	b.mu.Lock()
	idx, err := b.open(index)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return nil, fmt.Errorf("bleve index %s does not exist", index)
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = b.maxDocs
	req.Fields = []string{"*"}

	res, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search bleve index %s: %w", index, err)
	}

	docs := make([]Document, 0, len(res.Hits))
	for _, hit := range res.Hits {
		names := make([]string, 0, len(hit.Fields))
		for name := range hit.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		doc := Document{ID: hit.ID}
		for _, name := range names {
			doc.Fields = append(doc.Fields, Field{Name: name, Value: hit.Fields[name]})
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// IndexDocuments implements Writer, creating the index when missing.
func (b *Bleve) IndexDocuments(_ context.Context, index string, docs []Document) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, err := b.open(index)
	if err != nil {
		return err
	}
	if idx == nil {
		if idx, err = b.create(index); err != nil {
			return err
		}
	}

	batch := idx.NewBatch()
	for _, doc := range docs {
		data := make(map[string]interface{}, len(doc.Fields))
		for _, f := range doc.Fields {
			data[f.Name] = f.Value
		}
		if err := batch.Index(doc.ID, data); err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("write bleve index %s: %w", index, err)
	}
	return nil
}

func (b *Bleve) create(index string) (bleve.Index, error) {
	m := bleve.NewIndexMapping()
	var (
		idx bleve.Index
		err error
	)
	if b.dir == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if err := os.MkdirAll(b.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", b.dir, err)
		}
		idx, err = bleve.New(b.indexPath(index), m)
	}
	if err != nil {
		return nil, fmt.Errorf("create bleve index %s: %w", index, err)
	}
	b.indexes[index] = idx
	return idx, nil
}

// Close closes every open index. In-memory indexes are lost.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for name, idx := range b.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(b.indexes, name)
	}
	return errors.Join(errs...)
}

var (
	_ Source = (*Bleve)(nil)
	_ Writer = (*Bleve)(nil)
)
