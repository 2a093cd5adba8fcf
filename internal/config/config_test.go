package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "chapters:\n  - first\n  - second\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, cfg.Chapters)
	require.Equal(t, "src", cfg.SrcDir)
	require.Equal(t, "docs", cfg.OutDir)
	require.Equal(t, string(BibStyleUnsrt), cfg.BibStyle)
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, LogFormatText, cfg.Logging.Format)

	root := filepath.Dir(path)
	require.Equal(t, filepath.Join(root, "src"), cfg.SourcePath())
	require.Equal(t, filepath.Join(root, "info", "bibliography.bib"), cfg.BibliographyPath())
	require.Equal(t, filepath.Join(root, "info", "links.yml"), cfg.LinksPath())
}

func TestLoad_ExpandsEnvironmentAndDotEnv(t *testing.T) {
	path := writeConfig(t, "title: ${MCCOLE_TEST_TITLE}\nchapters: [a]\n")
	envPath := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("MCCOLE_TEST_TITLE=From Dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MCCOLE_TEST_TITLE") })

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "From Dotenv", cfg.Title)
}

func TestLoad_ExistingEnvironmentWins(t *testing.T) {
	t.Setenv("MCCOLE_TEST_AUTHOR", "Process")
	path := writeConfig(t, "author: ${MCCOLE_TEST_AUTHOR}\nchapters: [a]\n")
	envPath := filepath.Join(filepath.Dir(path), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("MCCOLE_TEST_AUTHOR=Dotenv\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Process", cfg.Author)
}

func TestLoad_DebugForcesDebugLevel(t *testing.T) {
	path := writeConfig(t, "debug: true\nchapters: [a]\nlogging:\n  format: JSON\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, LogLevelDebug, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"empty chapters":    "title: x\n",
		"duplicate chapter": "chapters: [a, b, a]\n",
		"nested slug":       "chapters: [a/b]\n",
		"bad style":         "chapters: [a]\nbib_style: fancy\n",
		"bad level":         "chapters: [a]\nlogging:\n  level: loud\n",
		"bad yaml":          "chapters: [a\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book", DefaultFile)

	require.NoError(t, Init(path, false))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Chapters)

	err = Init(path, false)
	require.Error(t, err)
	require.NoError(t, Init(path, true))
}

func TestSourceDirs_SkipsExcluded(t *testing.T) {
	cfg := &Config{Root: "/book", SrcDir: "src", Chapters: []string{"intro", "bib", "outro"}}

	dirs := cfg.SourceDirs("bib")
	require.Equal(t, []string{"/book/src/intro", "/book/src/outro"}, dirs)
	require.Equal(t, 2, cfg.ChapterIndex("outro"))
	require.Equal(t, -1, cfg.ChapterIndex("missing"))
}

func TestNormalizers(t *testing.T) {
	require.Equal(t, LogLevelWarn, NormalizeLogLevel(" Warning "))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel(""))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
	require.Equal(t, BibStylePlain, NormalizeBibStyle("PLAIN"))
}

func TestOptionalPaths(t *testing.T) {
	path := writeConfig(t, "chapters: [a]\nhistory: build/history.db\nmetrics_file: /var/lib/mccole.prom\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(filepath.Dir(path), "build", "history.db"), cfg.HistoryPath())
	require.Equal(t, "/var/lib/mccole.prom", cfg.MetricsPath())

	cfg.History = ":memory:"
	cfg.MetricsFile = ""
	require.Equal(t, ":memory:", cfg.HistoryPath())
	require.Empty(t, cfg.MetricsPath())
}

func TestLoggingConfig_NewLogger(t *testing.T) {
	require.Equal(t, slog.LevelDebug, LoggingConfig{Level: LogLevelWarn}.SlogLevel(true))
	require.Equal(t, slog.LevelWarn, LoggingConfig{Level: LogLevelWarn}.SlogLevel(false))
	require.Equal(t, slog.LevelInfo, LoggingConfig{}.SlogLevel(false))

	var buf bytes.Buffer
	LoggingConfig{Level: LogLevelInfo, Format: LogFormatJSON}.NewLogger(&buf, false).Info("hello", "k", "v")
	require.Contains(t, buf.String(), `"msg":"hello"`)
	require.Contains(t, buf.String(), `"k":"v"`)
}
