package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPass       = "pass"
	KeyDurationMS = "duration_ms"
	KeySlug       = "slug"
	KeyFile       = "file"
	KeyDirective  = "directive"
	KeyCount      = "count"
	KeyPath       = "path"
	KeyError      = "error"
	KeyStage      = "stage"
	KeyTitle      = "title"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Pass(name string) slog.Attr      { return slog.String(KeyPass, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Directive(d string) slog.Attr    { return slog.String(KeyDirective, d) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(s string) slog.Attr        { return slog.String(KeyStage, s) }
func Title(s string) slog.Attr        { return slog.String(KeyTitle, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
