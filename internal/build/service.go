package build

import (
	"context"
	"time"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/content"
	"github.com/cempisirgen/mccole/internal/history"
	"github.com/cempisirgen/mccole/internal/pipeline"
)

// BuildService is the canonical interface for executing book builds.
type BuildService interface {
	// Run loads the tree, runs the passes and, unless checking, renders the site.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains all inputs required to execute a build.
type BuildRequest struct {
	// Config is the loaded configuration for this build.
	Config *config.Config

	// Options provides optional build behavior modifiers.
	Options BuildOptions
}

// BuildOptions provides optional configuration for build behavior.
type BuildOptions struct {
	// CheckOnly runs the passes without copying assets or writing pages.
	CheckOnly bool

	// CheckLinks verifies local links of the rendered pages.
	CheckLinks bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	// ID identifies the build in logs and in the history ledger.
	ID string

	// Status indicates overall build outcome.
	Status BuildStatus

	// Report holds per-pass timings; nil if the tree could not be loaded.
	Report *pipeline.Report

	// State is the finished build state; partial when a pass failed.
	State *book.State

	// Tree is the loaded source tree.
	Tree *content.Tree

	// OutputPath is the output directory.
	OutputPath string

	// Pages lists the files written by the renderer.
	Pages []string

	// Changes lists pages that differ from the previous recorded build.
	// Empty when the ledger is disabled.
	Changes []history.Change

	// Duration is the total build execution time.
	Duration time.Duration

	// StartTime is when the build started.
	StartTime time.Time

	// EndTime is when the build completed.
	EndTime time.Time
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates the build completed successfully.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed indicates the build encountered an error.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed || s == BuildStatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

func (s BuildStatus) outcome() string {
	switch s {
	case BuildStatusSuccess:
		return history.OutcomeSuccess
	case BuildStatusCancelled:
		return history.OutcomeCanceled
	default:
		return history.OutcomeFailed
	}
}
