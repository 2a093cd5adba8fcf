package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/cempisirgen/mccole/internal/book"
	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/logfields"
	"github.com/cempisirgen/mccole/internal/metrics"
)

// PassRecord is the outcome of one executed pass.
type PassRecord struct {
	Name     string
	Duration time.Duration
	Result   metrics.ResultLabel
}

// Report summarises a pipeline run.
type Report struct {
	BuildID  string
	Passes   []PassRecord
	Duration time.Duration
	Outcome  metrics.BuildOutcomeLabel
}

// Runner executes passes in resolved order.
type Runner struct {
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewRunner returns a runner that logs through slog.Default and records nothing.
func NewRunner() *Runner {
	return &Runner{recorder: metrics.NoopRecorder{}, logger: slog.Default()}
}

// WithRecorder sets the metrics recorder.
func (r *Runner) WithRecorder(rec metrics.Recorder) *Runner {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	r.recorder = rec
	return r
}

// WithLogger sets the logger.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	if l != nil {
		r.logger = l
	}
	return r
}

// Run resolves the order of passes and executes each once. The first error
// stops the run and is returned as a *PassError.
func (r *Runner) Run(ctx context.Context, b *Build, passes []Pass) (*Report, error) {
	report := &Report{BuildID: b.ID}
	start := time.Now()
	finish := func(outcome metrics.BuildOutcomeLabel) {
		report.Duration = time.Since(start)
		report.Outcome = outcome
		r.recorder.ObserveBuildDuration(report.Duration)
		r.recorder.IncBuildOutcome(outcome)
	}

	ordered, err := Resolve(passes)
	if err != nil {
		finish(metrics.BuildOutcomeFailed)
		return report, err
	}

	log := r.logger.With(logfields.BuildID(b.ID))
	for _, p := range ordered {
		name := p.Name()
		select {
		case <-ctx.Done():
			r.recorder.IncPassResult(name, metrics.ResultCanceled)
			report.Passes = append(report.Passes, PassRecord{Name: name, Result: metrics.ResultCanceled})
			finish(metrics.BuildOutcomeCanceled)
			return report, &PassError{Kind: PassErrorCanceled, Pass: name, Err: ctx.Err()}
		default:
		}

		deps := p.Dependencies()
		for _, res := range deps.Requires {
			if !b.Has(res) {
				finish(metrics.BuildOutcomeFailed)
				return report, &PassError{Kind: PassErrorFatal, Pass: name, Err: ferrors.InternalError("required resource not produced").
					WithContext("resource", string(res)).
					WithCause(ferrors.ErrMissingPrerequisite).Build()}
			}
		}

		log.Debug("Pass starting", logfields.Pass(name))
		t0 := time.Now()
		err := p.Run(ctx, b)
		dur := time.Since(t0)
		r.recorder.ObservePassDuration(name, dur)

		if err != nil {
			r.recorder.IncPassResult(name, metrics.ResultFatal)
			report.Passes = append(report.Passes, PassRecord{Name: name, Duration: dur, Result: metrics.ResultFatal})
			log.Debug("Pass failed", logfields.Pass(name), logfields.DurationMS(millis(dur)), logfields.Error(err))
			finish(metrics.BuildOutcomeFailed)
			return report, &PassError{Kind: PassErrorFatal, Pass: name, Err: err}
		}

		b.mark(deps.Produces)
		r.recorder.IncPassResult(name, metrics.ResultSuccess)
		report.Passes = append(report.Passes, PassRecord{Name: name, Duration: dur, Result: metrics.ResultSuccess})
		log.Debug("Pass finished", logfields.Pass(name), logfields.DurationMS(millis(dur)))
	}

	r.recordCounts(b)
	finish(metrics.BuildOutcomeSuccess)
	log.Info("Build passes complete",
		logfields.Count(len(ordered)),
		logfields.DurationMS(millis(report.Duration)))
	return report, nil
}

func (r *Runner) recordCounts(b *Build) {
	s := b.State
	chapters, appendices := 0, 0
	for _, n := range s.Numbers {
		if n.Kind == book.KindChapter {
			chapters++
		} else {
			appendices++
		}
	}
	pages := 0
	if b.Tree != nil {
		pages = len(b.Tree.Pages())
	}
	r.recorder.SetCount("pages", pages)
	r.recorder.SetCount("chapters", chapters)
	r.recorder.SetCount("appendices", appendices)
	r.recorder.SetCount("figures", len(s.Figures))
	r.recorder.SetCount("tables", len(s.Tables))
	r.recorder.SetCount("links", s.Links.Len())
	r.recorder.SetCount("citations", s.Bibliography.Len())
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }
