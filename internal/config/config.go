// Package config loads indexsyn configuration from defaults, YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete indexsyn configuration.
type Config struct {
	Version  int            `yaml:"version"`
	Filter   FilterConfig   `yaml:"filter"`
	Source   SourceConfig   `yaml:"source"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FilterConfig holds the synonym parsing policy.
type FilterConfig struct {
	// Expand maps every term of a group to every other term.
	Expand bool `yaml:"expand"`
	// Lenient skips rules whose terms the analyzer rejects.
	Lenient bool `yaml:"lenient"`
	// Dedup drops repeated mappings. Filters built by the factory always dedup.
	Dedup bool `yaml:"dedup"`
	// CacheSize bounds the number of compiled maps kept in memory.
	CacheSize int `yaml:"cache_size"`
}

// SourceConfig describes where synonym documents are read from.
type SourceConfig struct {
	// Backend is one of opensearch, bleve, sqlite, files.
	Backend string `yaml:"backend"`
	Index   string `yaml:"index"`
	// Host is always the local node.
	Host     string `yaml:"-"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	// Path locates local backends (bleve directory, sqlite file, document tree).
	Path         string `yaml:"path,omitempty"`
	MaxDocuments int    `yaml:"max_documents"`
	Timeout      string `yaml:"timeout"`
}

// AnalysisConfig selects the analyzer rule terms are normalized with.
type AnalysisConfig struct {
	// Analyzer names a bleve analyzer.
	Analyzer string `yaml:"analyzer"`
	// Tokenizer and TokenFilters define a custom analyzer named Analyzer
	// when Tokenizer is set.
	Tokenizer    string   `yaml:"tokenizer,omitempty"`
	TokenFilters []string `yaml:"token_filters,omitempty"`
}

// WatchConfig tunes `indexsyn watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file,omitempty"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// NewConfig returns a configuration with all defaults applied.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Filter: FilterConfig{
			Expand:    true,
			Lenient:   false,
			Dedup:     true,
			CacheSize: 32,
		},
		Source: SourceConfig{
			Backend:      "opensearch",
			Index:        ".synonyms",
			Host:         "localhost",
			Port:         9200,
			MaxDocuments: 10000,
			Timeout:      "30s",
		},
		Analysis: AnalysisConfig{
			Analyzer: "synonym",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/indexsyn/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/indexsyn/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "indexsyn", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "indexsyn", "config.yaml")
	}
	return filepath.Join(home, ".config", "indexsyn", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// Load loads configuration for the project in dir. Sources apply in order
// of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/indexsyn/config.yaml)
//  3. Project config (.indexsyn.yaml in dir)
//  4. Environment variables (HTTP_PORT, INDEXSYN_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.Source.Host = "localhost"

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none.
func ProjectConfigPath(dir string) string {
	for _, name := range []string{".indexsyn.yaml", ".indexsyn.yml"} {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

// loadFromFile loads .indexsyn.yaml or .indexsyn.yml if present.
func (c *Config) loadFromFile(dir string) error {
	if p := ProjectConfigPath(dir); p != "" {
		return c.loadYAML(p)
	}
	return nil
}

// loadYAML decodes path over c. Keys absent from the file keep their
// current values, so explicit false and zero values are honoured.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies HTTP_PORT and INDEXSYN_* environment variables.
// HTTP_PORT mirrors the node's http.port; INDEXSYN_PORT wins over it.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Source.Port = p
		}
	}
	if v := os.Getenv("INDEXSYN_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Source.Port = p
		}
	}
	if v := os.Getenv("INDEXSYN_EXPAND"); v != "" {
		c.Filter.Expand = parseBool(v)
	}
	if v := os.Getenv("INDEXSYN_LENIENT"); v != "" {
		c.Filter.Lenient = parseBool(v)
	}
	if v := os.Getenv("INDEXSYN_BACKEND"); v != "" {
		c.Source.Backend = v
	}
	if v := os.Getenv("INDEXSYN_INDEX"); v != "" {
		c.Source.Index = v
	}
	if v := os.Getenv("INDEXSYN_USERNAME"); v != "" {
		c.Source.Username = v
	}
	if v := os.Getenv("INDEXSYN_PASSWORD"); v != "" {
		c.Source.Password = v
	}
	if v := os.Getenv("INDEXSYN_SOURCE_PATH"); v != "" {
		c.Source.Path = v
	}
	if v := os.Getenv("INDEXSYN_ANALYZER"); v != "" {
		c.Analysis.Analyzer = v
	}
	if v := os.Getenv("INDEXSYN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// TimeoutDuration parses Source.Timeout. Empty means no timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Source.Timeout)
	return d
}

// DebounceDuration parses Watch.Debounce, defaulting to 500ms.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	validBackends := map[string]bool{"opensearch": true, "bleve": true, "sqlite": true, "files": true}
	if !validBackends[strings.ToLower(c.Source.Backend)] {
		return fmt.Errorf("source.backend must be 'opensearch', 'bleve', 'sqlite', or 'files', got %s", c.Source.Backend)
	}
	if c.Source.Backend != "opensearch" && c.Source.Backend != "bleve" && c.Source.Path == "" {
		return fmt.Errorf("source.path is required for the %s backend", c.Source.Backend)
	}
	if strings.TrimSpace(c.Source.Index) == "" {
		return fmt.Errorf("source.index must not be empty")
	}
	if c.Source.Port <= 0 || c.Source.Port > 65535 {
		return fmt.Errorf("source.port must be between 1 and 65535, got %d", c.Source.Port)
	}
	if (c.Source.Username == "") != (c.Source.Password == "") {
		return fmt.Errorf("source.username and source.password must be set together")
	}
	if c.Source.MaxDocuments < 0 {
		return fmt.Errorf("source.max_documents must be non-negative, got %d", c.Source.MaxDocuments)
	}
	if c.Source.Timeout != "" {
		if _, err := time.ParseDuration(c.Source.Timeout); err != nil {
			return fmt.Errorf("source.timeout is not a duration: %s", c.Source.Timeout)
		}
	}
	if c.Filter.CacheSize <= 0 {
		return fmt.Errorf("filter.cache_size must be positive, got %d", c.Filter.CacheSize)
	}
	if c.Analysis.Analyzer == "" {
		return fmt.Errorf("analysis.analyzer must not be empty")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
