package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// idColumn holds the document id in every synonym table.
const idColumn = "_id"

// SQLite stores each synonym index as a table with one row per document.
// Every other TEXT column is a field; values holding a JSON array are lists.
type SQLite struct {
	db      *sql.DB
	maxDocs int
}

// NewSQLite opens the database at path. An empty path opens an in-memory
// database.
func NewSQLite(path string, maxDocs int) (*SQLite, error) {
	dsn := ":memory:"
	if path != "" {
		dsn = path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// One connection: an in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocuments
	}
	return &SQLite{db: db, maxDocs: maxDocs}, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Exists implements Source.
func (s *SQLite) Exists(ctx context.Context, index string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", index).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", index, err)
	}
	return n > 0, nil
}

// SearchAll implements Source. Fields follow column order.
func (s *SQLite) SearchAll(ctx context.Context, index string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY rowid LIMIT ?", quoteIdent(index)), s.maxDocs)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", index, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var docs []Document
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan table %s: %w", index, err)
		}

		var doc Document
		for i, col := range cols {
			if col == idColumn {
				doc.ID = vals[i].String
				continue
			}
			if !vals[i].Valid {
				continue
			}
			doc.Fields = append(doc.Fields, Field{Name: col, Value: columnValue(vals[i].String)})
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: %w", index, err)
	}
	return docs, nil
}

// columnValue decodes JSON arrays and objects; anything else is text.
func columnValue(text string) any {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 || (trimmed[0] != '[' && trimmed[0] != '{') {
		return text
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return text
	}
	return v
}

// IndexDocuments implements Writer. Columns are added for new fields;
// documents with an existing id are replaced.
func (s *SQLite) IndexDocuments(ctx context.Context, index string, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	table := quoteIdent(index)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY)", table, quoteIdent(idColumn))); err != nil {
		return fmt.Errorf("create table %s: %w", index, err)
	}

	have, err := tableColumns(ctx, tx, table)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		for _, f := range doc.Fields {
			if have[f.Name] {
				continue
			}
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(
				"ALTER TABLE %s ADD COLUMN %s TEXT", table, quoteIdent(f.Name))); err != nil {
				return fmt.Errorf("add column %s: %w", f.Name, err)
			}
			have[f.Name] = true
		}
	}

	for _, doc := range docs {
		cols := []string{quoteIdent(idColumn)}
		args := []any{doc.ID}
		for _, f := range doc.Fields {
			v, err := storedValue(f.Value)
			if err != nil {
				return fmt.Errorf("document %s field %s: %w", doc.ID, f.Name, err)
			}
			cols = append(cols, quoteIdent(f.Name))
			args = append(args, v)
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			return nil, err
		}
		have[name] = true
	}
	return have, rows.Err()
}

func storedValue(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case []any, []string, map[string]any:
		data, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		s, _, err := scalarText(x)
		return s, err
	}
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

var (
	_ Source = (*SQLite)(nil)
	_ Writer = (*SQLite)(nil)
)
