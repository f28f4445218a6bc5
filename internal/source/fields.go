package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNestedField is returned by Blobs for object-valued fields and for lists
// holding objects or lists. Such values have no rule text.
var ErrNestedField = errors.New("nested field values are not supported")

// Blobs returns the rule-text blobs of doc in field order. A list field
// yields one blob per element; a scalar yields one blob. Null values are
// skipped.
func Blobs(doc Document) ([]string, error) {
	var blobs []string
	for _, f := range doc.Fields {
		switch v := f.Value.(type) {
		case nil:
		case []any:
			for _, elem := range v {
				s, ok, err := scalarText(elem)
				if err != nil {
					return nil, nestedError(doc, f)
				}
				if ok {
					blobs = append(blobs, s)
				}
			}
		case []string:
			blobs = append(blobs, v...)
		default:
			s, ok, err := scalarText(v)
			if err != nil {
				return nil, nestedError(doc, f)
			}
			if ok {
				blobs = append(blobs, s)
			}
		}
	}
	return blobs, nil
}

func nestedError(doc Document, f Field) error {
	return fmt.Errorf("%w: document %s field %s", ErrNestedField, doc.ID, f.Name)
}

// scalarText converts a scalar to its text form. ok is false for nil.
func scalarText(v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case []byte:
		return string(x), true, nil
	case json.Number:
		return x.String(), true, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true, nil
	case map[string]any, []any, []string:
		return "", false, ErrNestedField
	default:
		return fmt.Sprint(x), true, nil
	}
}

// decodeObject decodes a JSON object into fields, keeping key order.
// Numbers are kept as json.Number.
func decodeObject(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	return fields, nil
}
