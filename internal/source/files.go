package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Files reads synonym documents from a directory tree: <dir>/<index>/ holds
// one document per .yaml, .yml or .json file. A file may also hold a list
// of documents. Field order follows the file.
type Files struct {
	dir string
}

// NewFiles returns a file-backed source rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{dir: dir}
}

// IndexDir returns the directory holding index.
func (f *Files) IndexDir(index string) string {
	return filepath.Join(f.dir, index)
}

// Exists implements Source.
func (f *Files) Exists(_ context.Context, index string) (bool, error) {
	info, err := os.Stat(f.IndexDir(index))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// SearchAll implements Source. Files are read in name order.
func (f *Files) SearchAll(ctx context.Context, index string) ([]Document, error) {
	dir := f.IndexDir(index)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read index directory %s: %w", dir, err)
	}

	var docs []Document
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !IsDocumentFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		fileDocs, err := ParseDocuments(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// IndexDocuments implements Writer, writing one YAML file per document.
func (f *Files) IndexDocuments(_ context.Context, index string, docs []Document) error {
	dir := f.IndexDir(index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	for _, doc := range docs {
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, field := range doc.Fields {
			var value yaml.Node
			if err := value.Encode(field.Value); err != nil {
				return fmt.Errorf("document %s field %s: %w", doc.ID, field.Name, err)
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: field.Name}, &value)
		}
		data, err := yaml.Marshal(node)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", doc.ID, err)
		}
		if err := os.WriteFile(filepath.Join(dir, doc.ID+".yaml"), data, 0o644); err != nil {
			return fmt.Errorf("write document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Close implements Source.
func (f *Files) Close() error {
	return nil
}

// IsDocumentFile reports whether name has a document extension.
func IsDocumentFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// ParseDocuments decodes YAML or JSON data holding one document (a mapping)
// or a list of documents. Each document may carry its id in an "_id" key;
// otherwise ids are derived from name. Multiple YAML documents in one
// stream are all read.
func ParseDocuments(name string, data []byte) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []Document
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		n := &root
		if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
			n = n.Content[0]
		}
		switch n.Kind {
		case yaml.MappingNode:
			docs = append(docs, mappingDocument(n))
		case yaml.SequenceNode:
			for _, item := range n.Content {
				if item.Kind != yaml.MappingNode {
					return nil, fmt.Errorf("line %d: expected a document mapping", item.Line)
				}
				docs = append(docs, mappingDocument(item))
			}
		default:
			return nil, fmt.Errorf("line %d: expected a document mapping or list", n.Line)
		}
	}

	for i := range docs {
		if docs[i].ID != "" {
			continue
		}
		if len(docs) == 1 {
			docs[i].ID = name
		} else {
			docs[i].ID = fmt.Sprintf("%s-%d", name, i+1)
		}
	}
	return docs, nil
}

func mappingDocument(n *yaml.Node) Document {
	var doc Document
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i].Value, n.Content[i+1]
		if key == idColumn && value.Kind == yaml.ScalarNode {
			doc.ID = value.Value
			continue
		}
		doc.Fields = append(doc.Fields, Field{Name: key, Value: nodeValue(value)})
	}
	return doc
}

// nodeValue converts a YAML node: scalars to their text, sequences to
// []any, mappings to map[string]any. Nulls become nil.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return n.Value
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			out = append(out, nodeValue(c))
		}
		return out
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			out[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return out
	case yaml.AliasNode:
		if n.Alias != nil {
			return nodeValue(n.Alias)
		}
	}
	return nil
}

var (
	_ Source = (*Files)(nil)
	_ Writer = (*Files)(nil)
)
