// Package source reads synonym documents from a search index.
//
// Every backend exposes the same three calls: an existence check, a
// match-all search and Close. OpenSearch is the production backend; the
// bleve, SQLite and file backends hold synonym documents locally.
package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxDocuments bounds a match-all search.
const DefaultMaxDocuments = 10000

// Backend names.
const (
	BackendOpenSearch = "opensearch"
	BackendBleve      = "bleve"
	BackendSQLite     = "sqlite"
	BackendFiles      = "files"
)

// Field is one top-level field of a document. Value is a scalar, a
// []any list, or a map for nested objects.
type Field struct {
	Name  string
	Value any
}

// Document is one stored document with its fields in storage order.
type Document struct {
	ID     string
	Fields []Field
}

// Source is a synonym index reader. A Source is used for one build and
// released with Close.
type Source interface {
	// Exists reports whether index exists.
	Exists(ctx context.Context, index string) (bool, error)
	// SearchAll returns every document of index.
	SearchAll(ctx context.Context, index string) ([]Document, error)
	// Close releases the connection.
	Close() error
}

// Writer stores synonym documents. Local backends implement it.
type Writer interface {
	IndexDocuments(ctx context.Context, index string, docs []Document) error
}

// NewDocument builds a document from ordered fields, assigning a fresh id
// when id is empty.
func NewDocument(id string, fields ...Field) Document {
	if id == "" {
		id = NewID()
	}
	return Document{ID: id, Fields: fields}
}

// NewID returns a sortable unique document id.
func NewID() string {
	return strings.ToLower(ulid.Make().String())
}

// Config selects and configures a backend.
type Config struct {
	Backend      string
	Host         string
	Port         int
	Username     string
	Password     string
	Path         string
	MaxDocuments int
	Timeout      time.Duration
}

// Open creates the Source named by cfg.Backend.
func Open(cfg Config) (Source, error) {
	switch cfg.Backend {
	case BackendOpenSearch, "":
		return NewOpenSearch(OpenSearchConfig{
			Host:         cfg.Host,
			Port:         cfg.Port,
			Username:     cfg.Username,
			Password:     cfg.Password,
			MaxDocuments: cfg.MaxDocuments,
			Timeout:      cfg.Timeout,
		})
	case BackendBleve:
		return NewBleve(cfg.Path, cfg.MaxDocuments), nil
	case BackendSQLite:
		return NewSQLite(cfg.Path, cfg.MaxDocuments)
	case BackendFiles:
		return NewFiles(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown source backend: %s (use: opensearch, bleve, sqlite, files)", cfg.Backend)
	}
}

// OpenWriter opens a local backend for writing.
func OpenWriter(cfg Config) (Writer, io.Closer, error) {
	src, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	w, ok := src.(Writer)
	if !ok {
		_ = src.Close()
		return nil, nil, fmt.Errorf("backend %s is read-only", cfg.Backend)
	}
	return w, src, nil
}
