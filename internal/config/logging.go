package config

import (
	"io"
	"log/slog"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// BibStyle names a bibliography formatting style.
type BibStyle string

const (
	BibStyleUnsrt BibStyle = "unsrt"
	BibStylePlain BibStyle = "plain"
)

var logLevels = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}

var logFormats = map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}

var bibStyles = map[string]BibStyle{
	"unsrt": BibStyleUnsrt,
	"plain": BibStylePlain,
}

func normalize[T ~string](values map[string]T, raw string, def T) T {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return def
	}
	if v, ok := values[key]; ok {
		return v
	}
	// Unknown values are kept verbatim so Validate can reject them.
	return T(key)
}

// NormalizeLogLevel lowercases and trims a level, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	return normalize(logLevels, raw, LogLevelInfo)
}

// NormalizeLogFormat lowercases and trims a format, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	return normalize(logFormats, raw, LogFormatText)
}

// NormalizeBibStyle lowercases and trims a style, defaulting to unsrt.
func NormalizeBibStyle(raw string) BibStyle {
	return normalize(bibStyles, raw, BibStyleUnsrt)
}

// SlogLevel maps the configured level onto slog; verbose forces debug.
func (l LoggingConfig) SlogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch l.Level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the text or JSON handler the configuration asks for.
func (l LoggingConfig) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel(verbose)}
	if l.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
