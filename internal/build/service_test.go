package build

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/config"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/git"
	"github.com/cempisirgen/mccole/internal/history"
	"github.com/cempisirgen/mccole/internal/metrics"
	"github.com/cempisirgen/mccole/internal/pipeline"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

// project writes a two-chapter book and returns its loaded config.
func project(t *testing.T, extra string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "mccole.yml", "title: Test\nchapters: [intro, bib]\ncopy: ['*.svg']\n"+extra)
	writeFile(t, dir, "info/bibliography.bib", `@book{b1, author={Doe, Jane}, title={Title}, year={2020}}`)
	writeFile(t, dir, "info/links.yml", "- {key: go, url: 'https://go.dev'}\n")
	writeFile(t, dir, "src/index.md", "---\ntitle: Home\n---\nWelcome.\n")
	writeFile(t, dir, "src/intro/index.md", "---\ntitle: Intro\ntag: start\n---\n"+
		"[% figure slug=f1 img=f1.svg caption=One %]\n\nSee [% f f1 %] and [% b b1 %] and [Go][go].\n")
	writeFile(t, dir, "src/intro/f1.svg", "<svg/>")
	writeFile(t, dir, "src/bib/index.md", "---\ntitle: Bibliography\n---\n")
	cfg, err := config.Load(filepath.Join(dir, "mccole.yml"))
	require.NoError(t, err)
	return cfg, dir
}

func fixedStamp() *pipeline.Stamp {
	return &pipeline.Stamp{
		Now:      func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		Revision: func(string) (git.Revision, error) { return git.Revision{Hash: "feedface"}, nil },
	}
}

func TestBuildStatus_IsSuccess(t *testing.T) {
	tests := []struct {
		status   BuildStatus
		expected bool
	}{
		{BuildStatusSuccess, true},
		{BuildStatusFailed, false},
		{BuildStatusCancelled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.IsSuccess())
			assert.True(t, tt.status.IsTerminal())
		})
	}
}

func TestDefaultBuildService_Run_NilConfig(t *testing.T) {
	result, err := NewBuildService().Run(context.Background(), BuildRequest{})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.Equal(t, ferrors.CategoryConfig, ferrors.GetCategory(err))
}

func TestDefaultBuildService_Run_WritesSite(t *testing.T) {
	cfg, _ := project(t, "")
	svc := NewBuildService().WithStamp(fixedStamp())

	result, err := svc.Run(context.Background(), BuildRequest{Config: cfg, Options: BuildOptions{CheckLinks: true}})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.NotEmpty(t, result.ID)
	assert.Len(t, result.Pages, 3)
	assert.Equal(t, "2024-01-02 03:04:05", result.State.Date)
	assert.Empty(t, result.Changes)

	page, err := os.ReadFile(filepath.Join(cfg.OutputPath(), "intro", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `<a href="../intro/#f1">Figure 1.1</a>`)
	_, err = os.Stat(filepath.Join(cfg.OutputPath(), "intro", "f1.svg"))
	require.NoError(t, err)
}

func TestDefaultBuildService_Run_CheckOnlyWritesNothing(t *testing.T) {
	cfg, _ := project(t, "")
	result, err := NewBuildService().WithStamp(fixedStamp()).
		Run(context.Background(), BuildRequest{Config: cfg, Options: BuildOptions{CheckOnly: true}})
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, result.Status)
	assert.Empty(t, result.Pages)
	assert.Len(t, result.Report.Passes, 7)

	_, err = os.Stat(cfg.OutputPath())
	assert.True(t, os.IsNotExist(err))
}

func TestDefaultBuildService_Run_PassFailure(t *testing.T) {
	cfg, dir := project(t, "")
	writeFile(t, dir, "src/intro/index.md", "---\ntag: start\n---\n[% figure img=x.svg %]\n")

	result, err := NewBuildService().WithStamp(fixedStamp()).Run(context.Background(), BuildRequest{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, BuildStatusFailed, result.Status)
	assert.True(t, errors.Is(err, ferrors.ErrMissingSlug))

	var pe *pipeline.PassError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, pipeline.PassCollectReferences, pe.Pass)
}

func TestDefaultBuildService_Run_Cancelled(t *testing.T) {
	cfg, _ := project(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewBuildService().WithStamp(fixedStamp()).Run(ctx, BuildRequest{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, BuildStatusCancelled, result.Status)
}

func TestDefaultBuildService_Run_RecordsHistory(t *testing.T) {
	cfg, dir := project(t, "history: history.db\n")
	svc := NewBuildService().WithStamp(fixedStamp())

	first, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Len(t, first.Changes, 3)

	writeFile(t, dir, "src/index.md", "---\ntitle: Home\n---\nWelcome back.\n")
	second, err := svc.Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, []history.Change{{Path: "", Kind: "modified"}}, second.Changes)

	store, err := history.Open(cfg.HistoryPath())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	builds, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, second.ID, builds[0].ID)
	assert.Equal(t, "feedface", builds[0].Revision)
	assert.Equal(t, history.OutcomeSuccess, builds[0].Outcome)
}

func TestDefaultBuildService_Run_ExportsMetrics(t *testing.T) {
	cfg, dir := project(t, "metrics_file: out/mccole.prom\n")
	rec := metrics.NewPrometheusRecorder(nil)

	_, err := NewBuildService().WithStamp(fixedStamp()).WithRecorder(rec).
		Run(context.Background(), BuildRequest{Config: cfg})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out", "mccole.prom"))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `mccole_pass_results_total{pass="render",result="success"} 1`), text)
	assert.Contains(t, text, `mccole_book_items{kind="figures"} 1`)
}

func TestDefaultBuildService_Run_SubPageKeepsChapterNumber(t *testing.T) {
	cfg, dir := project(t, "")
	writeFile(t, dir, "src/intro/extra.md", "---\ntitle: Extra\n---\nMore detail.\n")

	result, err := NewBuildService().WithStamp(fixedStamp()).
		Run(context.Background(), BuildRequest{Config: cfg, Options: BuildOptions{CheckOnly: true}})
	require.NoError(t, err)
	assert.Equal(t, book.Number{Kind: book.KindChapter, Number: "1"}, result.State.Numbers["intro"])
	title, _ := result.State.Meta["intro"].Title()
	assert.Equal(t, "Intro", title)
}

func TestDefaultBuildService_Run_SubPageFiguresRejected(t *testing.T) {
	cfg, dir := project(t, "")
	writeFile(t, dir, "src/intro/extra.md", "---\ntitle: Extra\n---\n[% figure slug=f2 img=f1.svg %]\n")

	_, err := NewBuildService().WithStamp(fixedStamp()).
		Run(context.Background(), BuildRequest{Config: cfg, Options: BuildOptions{CheckOnly: true}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ferrors.ErrAmbiguousLabel))
}

func TestDefaultBuildService_Run_FinalRecordsCarryFinishStage(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, _ := project(t, "")
	_, err := NewBuildService().WithStamp(fixedStamp()).
		Run(context.Background(), BuildRequest{Config: cfg, Options: BuildOptions{CheckOnly: true}})
	require.NoError(t, err)

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] == "Build complete" {
			found = true
			assert.Equal(t, "finish", rec["stage"])
			assert.Equal(t, "Test", rec["title"])
		}
	}
	assert.True(t, found, buf.String())
}
