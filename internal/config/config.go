package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when -c is not given.
const DefaultFile = "mccole.yml"

// InfoDir holds the bibliography and link table, relative to the project root.
const InfoDir = "info"

// Config represents the book configuration.
type Config struct {
	Title        string         `yaml:"title"`
	Repo         string         `yaml:"repo,omitempty"`
	Author       string         `yaml:"author,omitempty"`
	Chapters     []string       `yaml:"chapters"`
	Copy         []string       `yaml:"copy,omitempty"`
	Exclude      []string       `yaml:"exclude,omitempty"`
	SrcDir       string         `yaml:"src_dir,omitempty"`
	OutDir       string         `yaml:"out_dir,omitempty"`
	Bibliography string         `yaml:"bibliography,omitempty"`
	Links        string         `yaml:"links,omitempty"`
	BibStyle     string         `yaml:"bib_style,omitempty"`
	Debug        bool           `yaml:"debug,omitempty"`
	Logging      LoggingConfig  `yaml:"logging,omitempty"`
	History      string         `yaml:"history,omitempty"`
	MetricsFile  string         `yaml:"metrics_file,omitempty"`
	Params       map[string]any `yaml:"params,omitempty"`

	// Root is the project directory (the directory holding the config file).
	Root string `yaml:"-"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	root, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot resolve project root").
			Fatal().WithContext("config", configPath).Build()
	}

	if err := loadEnvFile(root); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot read configuration file").
			Fatal().WithContext("config", configPath).Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot parse configuration file").
			Fatal().WithContext("config", configPath).Build()
	}
	cfg.Root = root
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Untitled Book"
	}
	if c.SrcDir == "" {
		c.SrcDir = "src"
	}
	if c.OutDir == "" {
		c.OutDir = "docs"
	}
	if c.Bibliography == "" {
		c.Bibliography = "bibliography.bib"
	}
	if c.Links == "" {
		c.Links = "links.yml"
	}
	c.BibStyle = string(NormalizeBibStyle(c.BibStyle))
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	if c.Debug {
		c.Logging.Level = LogLevelDebug
	}
}

// SourcePath returns the absolute content directory.
func (c *Config) SourcePath() string { return c.resolve(c.SrcDir) }

// OutputPath returns the absolute output directory.
func (c *Config) OutputPath() string { return c.resolve(c.OutDir) }

// InfoRoot returns the absolute info directory.
func (c *Config) InfoRoot() string { return c.resolve(InfoDir) }

// InfoPath resolves a file inside the fixed info directory.
func (c *Config) InfoPath(name string) string {
	return c.resolve(filepath.Join(InfoDir, name))
}

// BibliographyPath returns the absolute bibliography location.
func (c *Config) BibliographyPath() string { return c.InfoPath(c.Bibliography) }

// LinksPath returns the absolute link table location.
func (c *Config) LinksPath() string { return c.InfoPath(c.Links) }

// HistoryPath returns the ledger database path, or "" when the ledger is disabled.
func (c *Config) HistoryPath() string {
	if c.History == "" || c.History == ":memory:" {
		return c.History
	}
	return c.resolve(c.History)
}

// MetricsPath returns the Prometheus textfile location, or "" when disabled.
func (c *Config) MetricsPath() string {
	if c.MetricsFile == "" {
		return ""
	}
	return c.resolve(c.MetricsFile)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SourceDirs lists the chapter directories under src_dir, skipping excluded slugs.
func (c *Config) SourceDirs(exclude ...string) []string {
	out := make([]string, 0, len(c.Chapters))
	for _, slug := range c.Chapters {
		if slices.Contains(exclude, slug) {
			continue
		}
		out = append(out, filepath.Join(c.SourcePath(), slug))
	}
	return out
}

// ChapterIndex returns the position of slug in the declared chapter order, or -1.
func (c *Config) ChapterIndex(slug string) int {
	return slices.Index(c.Chapters, slug)
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("config", configPath).Build()
	}

	example := Config{
		Title:    "My Book",
		Repo:     "https://github.com/example/book",
		Author:   "A. Author",
		Chapters: []string{"introduction", "details", "license", "bib", "syllabus"},
		Copy:     []string{"*.svg", "*.png"},
		Exclude:  []string{"*.py", "*.tbl", "*~"},
		SrcDir:   "src",
		OutDir:   "docs",
		BibStyle: string(BibStyleUnsrt),
		Logging:  LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot create config directory").
			Fatal().WithContext("config", configPath).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write configuration file").
			Fatal().WithContext("config", configPath).Build()
	}
	return nil
}
