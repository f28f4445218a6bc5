package synonym

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexsyn/internal/analysis"
	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/logging"
	"github.com/Aman-CERP/indexsyn/internal/source"
)

// fakeSource is an in-memory source.Source that records Close calls.
type fakeSource struct {
	docs      map[string][]source.Document
	existsErr error
	searchErr error
	closed    int
}

func (f *fakeSource) Exists(_ context.Context, index string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.docs[index]
	return ok, nil
}

func (f *fakeSource) SearchAll(_ context.Context, index string) ([]source.Document, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.docs[index], nil
}

func (f *fakeSource) Close() error {
	f.closed++
	return nil
}

func opts(policy Policy) Options {
	return Options{Policy: policy, Analyzer: analysis.Whitespace, Logger: logging.Nop()}
}

// TS04: an array field yields one independently parsed blob per element
func TestLoad_ArrayFieldYieldsIndependentBlobs(t *testing.T) {
	// Given: one document whose field holds two rule strings
	src := &fakeSource{docs: map[string][]source.Document{
		DefaultIndex: {{ID: "1", Fields: []source.Field{
			{Name: "synonyms", Value: []any{"cat, cats", "dog, dogs"}},
		}}},
	}}

	// When: loading
	m, stats, err := Load(context.Background(), src, opts(DefaultPolicy()))

	// Then: two equivalence groups, two blobs counted
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	assert.Equal(t, 4, m.Len())
	got, ok := m.Synonyms("dogs")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"dog", "dogs"}, got)
	_, ok = m.Synonyms("cat dog")
	assert.False(t, ok)
	assert.Equal(t, 1, src.closed)
}

func TestLoad_FieldOrderDoesNotMatter(t *testing.T) {
	fields := []source.Field{
		{Name: "a", Value: "cat, cats"},
		{Name: "b", Value: "quick => fast"},
		{Name: "c", Value: []any{"tv, telly"}},
	}
	reversed := []source.Field{fields[2], fields[1], fields[0]}

	load := func(fs []source.Field) *Map {
		src := &fakeSource{docs: map[string][]source.Document{DefaultIndex: {{ID: "1", Fields: fs}}}}
		m, _, err := Load(context.Background(), src, opts(DefaultPolicy()))
		require.NoError(t, err)
		return m
	}

	collect := func(m *Map) map[string][]string {
		out := make(map[string][]string)
		for _, k := range []string{"cat", "cats", "quick", "tv", "telly"} {
			got, _ := m.Synonyms(k)
			out[k] = got
		}
		return out
	}

	assert.Equal(t, collect(load(fields)), collect(load(reversed)))
}

func TestLoad_MissingIndexYieldsEmptyMap(t *testing.T) {
	src := &fakeSource{docs: map[string][]source.Document{}}

	m, stats, err := Load(context.Background(), src, opts(DefaultPolicy()))

	require.NoError(t, err)
	assert.True(t, m.Empty())
	assert.Zero(t, stats.Loaded)
	_, ok := m.Lookup([]string{"anything"})
	assert.False(t, ok)
	assert.Equal(t, 1, src.closed)
}

func TestLoad_SourceFailuresAreFatal(t *testing.T) {
	refused := errors.New("connection refused")
	tests := []struct {
		name string
		src  *fakeSource
	}{
		{"exists", &fakeSource{existsErr: refused}},
		{"search", &fakeSource{
			docs:      map[string][]source.Document{DefaultIndex: nil},
			searchErr: refused,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := Load(context.Background(), tt.src, opts(DefaultPolicy()))

			assert.Nil(t, m)
			require.Error(t, err)
			assert.ErrorIs(t, err, refused)
			assert.Equal(t, synerrors.ErrCodeSourceFailure, synerrors.GetCode(err))
			assert.Equal(t, 1, tt.src.closed)
		})
	}
}

func TestLoad_SyntaxErrorAbortsAndCloses(t *testing.T) {
	src := &fakeSource{docs: map[string][]source.Document{
		"custom": {{ID: "1", Fields: []source.Field{{Name: "r", Value: []any{"a, b", "=> c"}}}}},
	}}
	o := opts(DefaultPolicy())
	o.Index = "custom"

	_, stats, err := Load(context.Background(), src, o)

	require.Error(t, err)
	assert.Equal(t, synerrors.ErrCodeRuleSyntax, synerrors.GetCode(err))
	var se *synerrors.SynError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "custom", se.Details["index"])
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, src.closed)
}

func TestLoad_NestedObjectFieldIsRejected(t *testing.T) {
	src := &fakeSource{docs: map[string][]source.Document{
		DefaultIndex: {{ID: "n1", Fields: []source.Field{{Name: "meta", Value: map[string]any{"k": "v"}}}}},
	}}

	_, _, err := Load(context.Background(), src, opts(DefaultPolicy()))

	require.Error(t, err)
	assert.Equal(t, synerrors.ErrCodeNestedField, synerrors.GetCode(err))
	assert.ErrorIs(t, err, source.ErrNestedField)
	assert.True(t, synerrors.IsFatal(err))
}

func TestLoad_LocalBleveSource(t *testing.T) {
	// Given: a real in-memory bleve index holding synonym documents
	ctx := context.Background()
	src := source.NewBleve("", 0)
	require.NoError(t, src.IndexDocuments(ctx, DefaultIndex, []source.Document{
		{ID: "1", Fields: []source.Field{{Name: "synonyms", Value: []any{"ipod, i-pod, i pod", "quick => fast, rapid"}}}},
	}))

	a, err := analysis.NewBleve(analysis.WhitespaceAnalyzer)
	require.NoError(t, err)

	// When: loading through the parser
	m, stats, err := Load(ctx, src, Options{Policy: DefaultPolicy(), Analyzer: a, Logger: logging.Nop()})

	// Then
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Loaded)
	got, ok := m.Synonyms("i pod")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"ipod", "i-pod", "i pod"}, got)
	got, ok = m.Synonyms("quick")
	require.True(t, ok)
	assert.Equal(t, []string{"fast", "rapid"}, got)
}

func TestParseSource_AfterFailureReturnsSameError(t *testing.T) {
	p, err := NewParser(opts(DefaultPolicy()))
	require.NoError(t, err)
	first := p.ParseText("a => b => c")
	require.Error(t, first)

	src := &fakeSource{docs: map[string][]source.Document{DefaultIndex: nil}}
	assert.Equal(t, first, p.ParseSource(context.Background(), src))
	assert.Equal(t, 1, src.closed)
}
