package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cempisirgen/mccole/internal/build"
	"github.com/cempisirgen/mccole/internal/config"
)

type countingService struct {
	runs atomic.Int32
}

func (c *countingService) Run(context.Context, build.BuildRequest) (*build.BuildResult, error) {
	c.runs.Add(1)
	return &build.BuildResult{Status: build.BuildStatusSuccess}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"src/intro", "src/extra", "info"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o750))
	}
	return &config.Config{
		Root:     root,
		SrcDir:   "src",
		Chapters: []string{"intro", "extra"},
		Exclude:  []string{"*.tmp"},
	}
}

func TestDirs_SkipsExcludedChapters(t *testing.T) {
	cfg := testConfig(t)
	w := New(cfg, &countingService{}, build.BuildOptions{}).WithSkip("extra")
	assert.Equal(t, []string{
		filepath.Join(cfg.Root, "src"),
		filepath.Join(cfg.Root, "src", "intro"),
		filepath.Join(cfg.Root, "info"),
	}, w.Dirs())
}

func TestIgnored(t *testing.T) {
	w := New(testConfig(t), &countingService{}, build.BuildOptions{})
	for _, p := range []string{"/x/.hidden", "/x/file.md~", "/x/.file.swp", "/x/#auto#", "/x/scratch.tmp"} {
		assert.True(t, w.ignored(p), p)
	}
	assert.False(t, w.ignored("/x/index.md"))
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	req, trigger := newDebouncer(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		trigger()
	}
	select {
	case <-req:
	case <-time.After(time.Second):
		t.Fatal("debounced request never fired")
	}
	select {
	case <-req:
		t.Fatal("burst produced more than one request")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRun_RebuildsOnChange(t *testing.T) {
	cfg := testConfig(t)
	svc := &countingService{}
	built := make(chan struct{}, 10)
	w := New(cfg, svc, build.BuildOptions{}).
		WithDebounce(20 * time.Millisecond).
		OnBuild(func(*build.BuildResult, error) { built <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitBuild := func() {
		t.Helper()
		select {
		case <-built:
		case <-time.After(5 * time.Second):
			t.Fatal("no build")
		}
	}
	waitBuild()

	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "src", "intro", "index.md"), []byte("# Intro\n"), 0o600))
	waitBuild()
	assert.GreaterOrEqual(t, svc.runs.Load(), int32(2))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
