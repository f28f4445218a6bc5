// Package version reports the indexsyn build together with the versions of
// the search and storage libraries the synonym filter was compiled against.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is set via ldflags:
// -X github.com/Aman-CERP/indexsyn/pkg/version.Version=$(VERSION)
// Binaries installed with go install fall back to the module version.
var Version = "dev"

var (
	// Commit is the git commit hash.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// GoVersion is the toolchain that built the binary.
	GoVersion = runtime.Version()
)

// FilterName is the bleve token filter name the binary registers. It must
// match filter.Name; pkg cannot import internal packages.
const FilterName = "index_synonym_graph"

// tracked are the modules whose versions decide rule analysis and source
// compatibility.
var tracked = []string{
	"github.com/blevesearch/bleve/v2",
	"github.com/blevesearch/vellum",
	"github.com/opensearch-project/opensearch-go/v2",
	"modernc.org/sqlite",
}

// Component is one tracked dependency and the version linked in.
type Component struct {
	Module  string `json:"module"`
	Version string `json:"version"`
}

// BuildInfo is the JSON form of version output.
type BuildInfo struct {
	Version    string      `json:"version"`
	Commit     string      `json:"commit"`
	Date       string      `json:"date"`
	GoVersion  string      `json:"go_version"`
	OS         string      `json:"os"`
	Arch       string      `json:"arch"`
	Filter     string      `json:"filter"`
	Components []Component `json:"components"`
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("indexsyn %s (commit: %s, built: %s, go: %s)",
		Short(), Commit, Date, GoVersion)
}

// Short returns just the version.
func Short() string {
	bi, ok := debug.ReadBuildInfo()
	return resolve(Version, bi, ok)
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	return BuildInfo{
		Version:    resolve(Version, bi, ok),
		Commit:     Commit,
		Date:       Date,
		GoVersion:  GoVersion,
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Filter:     FilterName,
		Components: components(bi, ok),
	}
}

// Describe renders the tracked components as "module@version" lines.
func Describe() string {
	var sb strings.Builder
	for _, c := range GetInfo().Components {
		fmt.Fprintf(&sb, "%s@%s\n", c.Module, c.Version)
	}
	return sb.String()
}

func resolve(v string, bi *debug.BuildInfo, ok bool) string {
	if v != "dev" || !ok || bi == nil {
		return v
	}
	if mv := bi.Main.Version; mv != "" && mv != "(devel)" {
		return strings.TrimPrefix(mv, "v")
	}
	return v
}

func components(bi *debug.BuildInfo, ok bool) []Component {
	linked := make(map[string]string)
	if ok && bi != nil {
		for _, dep := range bi.Deps {
			v := dep.Version
			if dep.Replace != nil {
				v = dep.Replace.Version
			}
			linked[dep.Path] = v
		}
	}
	out := make([]Component, 0, len(tracked))
	for _, path := range tracked {
		v := linked[path]
		if v == "" {
			v = "unknown"
		}
		out = append(out, Component{Module: path, Version: v})
	}
	return out
}
