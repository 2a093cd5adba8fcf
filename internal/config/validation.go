package config

import (
	"strings"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

// Validate checks structural requirements the pipeline relies on.
// It does not check chapter-before-appendix ordering: that needs page
// metadata and is reported by the numbering pass.
func (c *Config) Validate() error {
	if len(c.Chapters) == 0 {
		return ferrors.ConfigError("chapters list is empty").Build()
	}
	seen := make(map[string]int, len(c.Chapters))
	for i, slug := range c.Chapters {
		if strings.TrimSpace(slug) == "" {
			return ferrors.ConfigError("chapters list contains an empty slug").
				WithContext("index", i).Build()
		}
		if strings.Contains(slug, "/") {
			return ferrors.ConfigError("chapter slug must be a single path segment").
				WithContext("slug", slug).Build()
		}
		if prev, ok := seen[slug]; ok {
			return ferrors.ConfigError("chapter slug listed twice").
				WithContext("slug", slug).
				WithContext("first", prev).
				WithContext("second", i).Build()
		}
		seen[slug] = i
	}
	if _, ok := bibStyles[c.BibStyle]; !ok {
		return ferrors.ConfigError("unknown bibliography style").
			WithContext("bib_style", c.BibStyle).Build()
	}
	if _, ok := logLevels[string(c.Logging.Level)]; !ok {
		return ferrors.ConfigError("unknown logging level").
			WithContext("level", string(c.Logging.Level)).Build()
	}
	if _, ok := logFormats[string(c.Logging.Format)]; !ok {
		return ferrors.ConfigError("unknown logging format").
			WithContext("format", string(c.Logging.Format)).Build()
	}
	return nil
}
