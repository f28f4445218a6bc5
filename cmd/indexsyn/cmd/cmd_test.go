package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	synerrors "github.com/Aman-CERP/indexsyn/internal/errors"
	"github.com/Aman-CERP/indexsyn/internal/lock"
	"github.com/Aman-CERP/indexsyn/pkg/version"
)

const testRules = `synonyms:
  - "usa, united states"
  - "ny => new york"
`

// testProject creates a project whose config points at a files source
// holding testRules, and isolates the user config and environment.
func testProject(t *testing.T) (dir, data string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"HTTP_PORT", "INDEXSYN_PORT", "INDEXSYN_BACKEND", "INDEXSYN_INDEX",
		"INDEXSYN_SOURCE_PATH", "INDEXSYN_EXPAND", "INDEXSYN_LENIENT", "INDEXSYN_ANALYZER"} {
		t.Setenv(k, "")
	}

	dir = t.TempDir()
	data = filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(filepath.Join(data, ".synonyms"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, ".synonyms", "rules.yaml"), []byte(testRules), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".indexsyn.yaml"),
		[]byte("source:\n  backend: files\n  path: "+data+"\n"), 0o644))
	return dir, data
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--config-dir", dir}, args...))
	err := root.Execute()
	return buf.String(), err
}

func buildStats(t *testing.T, dir string, args ...string) buildReport {
	t.Helper()
	out, err := run(t, dir, append([]string{"build", "--json"}, args...)...)
	require.NoError(t, err)
	var report buildReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	return report
}

// TS01: build compiles rules from the configured source
func TestBuildCmd_ReportsStatistics(t *testing.T) {
	// Given: a files source with two rule blobs
	dir, _ := testProject(t)

	// When: building
	report := buildStats(t, dir)

	// Then: both blobs load and three inputs are compiled
	assert.Equal(t, "files", report.Backend)
	assert.Equal(t, ".synonyms", report.Index)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 3, report.Inputs)
	assert.Equal(t, 5, report.Accepted)
	assert.Equal(t, 2, report.MaxContext)
	assert.Positive(t, report.States)
}

func TestBuildCmd_ExpandFlagOff(t *testing.T) {
	dir, _ := testProject(t)

	report := buildStats(t, dir, "--expand=false")

	// usa and united states both map to usa; ny maps to new york
	assert.Equal(t, 3, report.Inputs)
	assert.Equal(t, 3, report.Accepted)
}

func TestBuildCmd_MissingIndex_PassesThrough(t *testing.T) {
	// Given: an index that does not exist
	dir, _ := testProject(t)

	// When: building it
	out, err := run(t, dir, "build", "--index", "absent")

	// Then: the build succeeds with an empty map
	require.NoError(t, err)
	assert.Contains(t, out, "No synonyms in absent")
	assert.Contains(t, out, "loaded:")
}

func TestBuildCmd_SyntaxError_Fails(t *testing.T) {
	dir, data := testProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(data, ".synonyms", "bad.yaml"),
		[]byte("rules: \"a => b => c\"\n"), 0o644))

	_, err := run(t, dir, "build")

	require.Error(t, err)
	assert.True(t, synerrors.HasCode(err, synerrors.ErrCodeRuleSyntax))
}

func TestLookupCmd_AppliesLongestMatch(t *testing.T) {
	dir, _ := testProject(t)

	out, err := run(t, dir, "lookup", "Flights", "to", "NY")

	require.NoError(t, err)
	assert.Equal(t, "0\tflights\n1\tto\n2\tnew york\n", out)
}

func TestLookupCmd_FactoryFailureIsBuildFailed(t *testing.T) {
	// Given: a rule the filter factory cannot compile
	dir, data := testProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(data, ".synonyms", "bad.yaml"),
		[]byte("rules: \"=> b\"\n"), 0o644))

	// When: running a lookup
	_, err := run(t, dir, "lookup", "usa")

	// Then: the failure is wrapped with the build failure code
	require.Error(t, err)
	assert.Equal(t, synerrors.ErrCodeBuildFailed, synerrors.GetCode(err))
	assert.True(t, synerrors.HasCode(err, synerrors.ErrCodeRuleSyntax))
}

func TestLookupCmd_Graph_PrintsPositions(t *testing.T) {
	dir, _ := testProject(t)

	out, err := run(t, dir, "lookup", "--graph", "ny", "trip")

	require.NoError(t, err)
	// bleve positions start at 1
	assert.Contains(t, out, "1\tny\t0:2\n")
	assert.Contains(t, out, "1\tnew\t0:2\n")
	assert.Contains(t, out, "2\tyork\t0:2\n")
	assert.Contains(t, out, "2\ttrip\t3:7\n")
}

func TestDumpCmd_PrintsSortedMappings(t *testing.T) {
	dir, _ := testProject(t)

	out, err := run(t, dir, "dump")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, out, "ny => new york\n")
	assert.Contains(t, out, "usa => ")
	assert.Contains(t, out, "united states")
}

func TestDumpCmd_Limit(t *testing.T) {
	dir, _ := testProject(t)

	out, err := run(t, dir, "dump", "--limit", "1")

	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1)
}

func TestIndexCmd_RulesAndFiles(t *testing.T) {
	// Given: a project and an extra document file
	dir, _ := testProject(t)
	extra := filepath.Join(t.TempDir(), "extra.json")
	require.NoError(t, os.WriteFile(extra, []byte(`{"synonyms": ["tv, television"]}`), 0o644))

	// When: indexing the file and a --rule
	out, err := run(t, dir, "index", extra, "--rule", "laptop, notebook")

	// Then: both documents are stored and picked up by the next build
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 document(s) into .synonyms")
	assert.Contains(t, out, "extra")

	report := buildStats(t, dir)
	assert.Equal(t, 4, report.Loaded)
	assert.Equal(t, 7, report.Inputs)
}

func TestIndexCmd_LockedSource_Fails(t *testing.T) {
	// Given: another writer holding the source lock
	dir, data := testProject(t)
	held := lock.ForDir(data)
	require.NoError(t, held.TryLock())
	defer func() { _ = held.Unlock() }()

	// When: indexing without --wait
	_, err := run(t, dir, "index", "--rule", "a, b")

	// Then: the command reports the lock
	require.Error(t, err)
	assert.Equal(t, synerrors.ErrCodeLocked, synerrors.GetCode(err))
}

func TestIndexCmd_NothingToIndex(t *testing.T) {
	dir, _ := testProject(t)

	_, err := run(t, dir, "index")

	require.Error(t, err)
}

func TestIndexCmd_OpenSearchIsReadOnly(t *testing.T) {
	dir, _ := testProject(t)

	_, err := run(t, dir, "index", "--backend", "opensearch", "--rule", "a, b")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
}

func TestWatchOptions_PerBackend(t *testing.T) {
	dir, data := testProject(t)
	root := NewRootCmd()
	root.SetArgs([]string{"--config-dir", dir})
	require.NoError(t, root.ParseFlags([]string{"--config-dir", dir}))
	cfg, err := loadConfig(root)
	require.NoError(t, err)

	opts, err := watchOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, data, opts.Root)
	assert.True(t, opts.Match(filepath.Join(".synonyms", "rules.yaml")))
	assert.False(t, opts.Match(filepath.Join(".synonyms", "notes.txt")))
	assert.False(t, opts.Match(filepath.Join("other", "rules.yaml")))

	cfg.Source.Backend = "sqlite"
	cfg.Source.Path = filepath.Join(data, "syn.db")
	opts, err = watchOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, data, opts.Root)
	assert.True(t, opts.Match("syn.db-wal"))

	cfg.Source.Backend = "opensearch"
	_, err = watchOptions(cfg)
	assert.Error(t, err)
}

func TestConfigCmd_ShowDefaults(t *testing.T) {
	dir, _ := testProject(t)

	out, err := run(t, dir, "config", "show", "--source", "defaults")

	require.NoError(t, err)
	assert.Contains(t, out, "index: .synonyms")
	assert.Contains(t, out, "backend: opensearch")
}

func TestConfigCmd_ShowMerged_MasksPassword(t *testing.T) {
	dir, _ := testProject(t)
	t.Setenv("INDEXSYN_USERNAME", "admin")
	t.Setenv("INDEXSYN_PASSWORD", "secret")

	out, err := run(t, dir, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "backend: files")
	assert.NotContains(t, out, "secret")
}

func TestConfigCmd_InitThenForce(t *testing.T) {
	dir, _ := testProject(t)

	out, err := run(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user configuration")

	out, err = run(t, dir, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = run(t, dir, "config", "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")
}

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default", args: []string{"version"}, want: "indexsyn " + version.Short()},
		{name: "short", args: []string{"version", "--short"}, want: version.Short() + "\n"},
		{name: "json", args: []string{"version", "--json"}, want: `"go_version"`},
		{name: "json filter", args: []string{"version", "--json"}, want: `"filter": "index_synonym_graph"`},
		{name: "deps", args: []string{"version", "--deps"}, want: "github.com/blevesearch/bleve/v2@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, _ := testProject(t)
			out, err := run(t, dir, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}
