package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/content"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/history"
	"github.com/cempisirgen/mccole/internal/logfields"
	"github.com/cempisirgen/mccole/internal/metrics"
	"github.com/cempisirgen/mccole/internal/observability"
	"github.com/cempisirgen/mccole/internal/pipeline"
	"github.com/cempisirgen/mccole/internal/site"
)

// Stage names used in logs and, for render and links, as metric pass labels.
const (
	stageLoad    = "load"
	stagePasses  = "passes"
	stageRender  = "render"
	stageLinks   = "check_links"
	stageHistory = "history"
	stageFinish  = "finish"
)

// DefaultBuildService is the standard implementation of BuildService.
// It orchestrates the full build: load → passes → render → ledger.
type DefaultBuildService struct {
	stamp    *pipeline.Stamp
	recorder metrics.Recorder
	now      func() time.Time
}

// NewBuildService creates a DefaultBuildService that stamps with the wall
// clock and records no metrics.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{recorder: metrics.NoopRecorder{}, now: time.Now}
}

// WithStamp replaces the stamp pass (for testing).
func (s *DefaultBuildService) WithStamp(stamp *pipeline.Stamp) *DefaultBuildService {
	s.stamp = stamp
	return s
}

// WithRecorder sets the metrics recorder. A *metrics.PrometheusRecorder is
// also exported to the configured metrics_file after every build.
func (s *DefaultBuildService) WithRecorder(rec metrics.Recorder) *DefaultBuildService {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	s.recorder = rec
	return s
}

// Run executes the complete build.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	startTime := s.now()
	result := &BuildResult{StartTime: startTime}

	if req.Config == nil {
		s.finish(result, BuildStatusFailed)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return result, ferrors.ConfigError("config required").Build()
	}
	cfg := req.Config
	result.OutputPath = cfg.OutputPath()
	ctx = observability.WithTitle(ctx, cfg.Title)

	// Stage 1: load the source tree
	ctx = observability.WithStage(ctx, stageLoad)
	observability.DebugContext(ctx, "Loading source tree", logfields.Path(cfg.SourcePath()))
	tree, err := content.NewLoader(cfg.SourcePath(), cfg.Exclude).Load()
	if err != nil {
		s.finish(result, BuildStatusFailed)
		s.recorder.IncBuildOutcome(metrics.BuildOutcomeFailed)
		observability.ErrorContext(ctx, "Cannot load source tree", logfields.Error(err))
		return result, err
	}

	b := pipeline.NewBuild(cfg, tree)
	result.ID = b.ID
	result.State = b.State
	result.Tree = tree
	ctx = observability.WithBuildID(ctx, b.ID)
	// Fingerprint before append_links rewrites page text.
	snapshot := history.Snapshot(tree)

	err = s.execute(ctx, req, b, result)
	s.finish(result, statusFor(err))

	if recErr := s.record(ctx, cfg, result, snapshot, err); recErr != nil {
		observability.WarnContext(ctx, "Cannot update build history", logfields.Error(recErr))
		if err == nil {
			err = recErr
		}
	}
	s.exportMetrics(ctx, cfg)

	ctx = observability.WithStage(ctx, stageFinish)
	if err != nil {
		observability.ErrorContext(ctx, "Build failed",
			slog.String("status", string(result.Status)),
			logfields.Error(err))
		return result, err
	}
	observability.InfoContext(ctx, "Build complete",
		logfields.Count(len(result.Pages)),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))
	return result, nil
}

func (s *DefaultBuildService) execute(ctx context.Context, req BuildRequest, b *pipeline.Build, result *BuildResult) error {
	// Stage 2: passes
	ctx = observability.WithStage(ctx, stagePasses)
	passes := pipeline.Default(pipeline.Options{Stamp: s.stamp, SkipAssets: req.Options.CheckOnly})
	report, err := pipeline.NewRunner().WithRecorder(s.recorder).Run(ctx, b, passes)
	result.Report = report
	if err != nil {
		return err
	}
	if req.Options.CheckOnly {
		observability.InfoContext(ctx, "Check complete; nothing written")
		return nil
	}

	// Stage 3: render
	ctx = observability.WithStage(ctx, stageRender)
	err = s.timed(stageRender, func() error {
		r, err := site.NewRenderer(b.Config, b.State)
		if err != nil {
			return err
		}
		res, err := r.Render(ctx, b.Tree)
		if res != nil {
			result.Pages = res.Pages
		}
		return err
	})
	if err != nil || !req.Options.CheckLinks {
		return err
	}

	// Stage 4: local link verification
	ctx = observability.WithStage(ctx, stageLinks)
	return s.timed(stageLinks, func() error {
		broken, err := site.CheckLinks(result.Pages)
		if err != nil {
			return err
		}
		for _, l := range broken {
			observability.WarnContext(ctx, "Broken link",
				logfields.File(l.Page), slog.String("url", l.URL), slog.String("reason", l.Reason))
		}
		return site.BrokenLinksError(broken)
	})
}

// timed runs a post-pass stage and reports it like a pass.
func (s *DefaultBuildService) timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.recorder.ObservePassDuration(name, time.Since(start))
	switch {
	case err == nil:
		s.recorder.IncPassResult(name, metrics.ResultSuccess)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.recorder.IncPassResult(name, metrics.ResultCanceled)
	default:
		s.recorder.IncPassResult(name, metrics.ResultFatal)
	}
	return err
}

// record appends the build to the history ledger when one is configured and
// fills in the pages changed since the previous build.
func (s *DefaultBuildService) record(ctx context.Context, cfg *config.Config, result *BuildResult, pages []history.PageRecord, buildErr error) error {
	path := cfg.HistoryPath()
	if path == "" {
		return nil
	}
	ctx = observability.WithStage(ctx, stageHistory)
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec := history.BuildRecord{
		ID:       result.ID,
		Started:  result.StartTime,
		Finished: result.EndTime,
		Outcome:  result.Status.outcome(),
	}
	if result.State != nil {
		rec.Revision = result.State.Revision
	}
	if buildErr != nil {
		rec.Error = buildErr.Error()
	}
	// Context may already be cancelled; the ledger still gets the outcome.
	writeCtx := context.WithoutCancel(ctx)
	if err := store.Record(writeCtx, rec, pages); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot record build").
			Fatal().WithContext("history", path).Build()
	}
	changes, err := store.ChangedSince(writeCtx, result.ID)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot compare with previous build").
			Fatal().WithContext("history", path).Build()
	}
	result.Changes = changes
	observability.DebugContext(ctx, "Build recorded", logfields.Count(len(changes)))
	return nil
}

func (s *DefaultBuildService) exportMetrics(ctx context.Context, cfg *config.Config) {
	if cfg.MetricsFile == "" {
		return
	}
	prom, ok := s.recorder.(*metrics.PrometheusRecorder)
	if !ok {
		return
	}
	path := cfg.MetricsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		observability.WarnContext(ctx, "Cannot create metrics directory", logfields.Path(path), logfields.Error(err))
		return
	}
	if err := prom.WriteTextfile(path); err != nil {
		observability.WarnContext(ctx, "Cannot write metrics file", logfields.Path(path), logfields.Error(err))
	}
}

func (s *DefaultBuildService) finish(result *BuildResult, status BuildStatus) {
	result.Status = status
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)
}

func statusFor(err error) BuildStatus {
	switch {
	case err == nil:
		return BuildStatusSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return BuildStatusCancelled
	default:
		return BuildStatusFailed
	}
}
