package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cempisirgen/mccole/internal/book"
	"github.com/cempisirgen/mccole/internal/config"
	"github.com/cempisirgen/mccole/internal/content"
)

// Resource names a piece of build state a pass writes or reads.
type Resource string

const (
	ResDate         Resource = "date"
	ResBibliography Resource = "bibliography"
	ResLinks        Resource = "links"
	ResMeta         Resource = "meta"
	ResNumbers      Resource = "numbers"
	ResReferences   Resource = "references"
	ResLinkedText   Resource = "linked_text"
	ResAssets       Resource = "assets"
)

// Canonical pass names.
const (
	PassStamp             = "stamp"
	PassBibliography      = "bibliography"
	PassLinks             = "links"
	PassCollectMeta       = "collect_meta"
	PassNumberChapters    = "number_chapters"
	PassCollectReferences = "collect_references"
	PassAppendLinks       = "append_links"
	PassCopyFiles         = "copy_files"
)

// Dependencies declares what a pass needs and what it leaves behind.
type Dependencies struct {
	Requires []Resource
	Produces []Resource
	// MustRunAfter names passes that have to finish first even though no
	// resource links them.
	MustRunAfter []string
}

// Pass is one step of the build.
type Pass interface {
	Name() string
	Dependencies() Dependencies
	Run(ctx context.Context, b *Build) error
}

// Build carries everything a single pipeline run reads and writes.
type Build struct {
	ID     string
	Config *config.Config
	Tree   *content.Tree
	State  *book.State

	produced map[Resource]bool
}

// NewBuild starts a build with an empty State.
func NewBuild(cfg *config.Config, tree *content.Tree) *Build {
	return &Build{
		ID:       uuid.NewString(),
		Config:   cfg,
		Tree:     tree,
		State:    book.NewState(cfg.Chapters),
		produced: map[Resource]bool{},
	}
}

// Has reports whether a resource has been produced in this build.
func (b *Build) Has(r Resource) bool { return b.produced[r] }

func (b *Build) mark(rs []Resource) {
	for _, r := range rs {
		b.produced[r] = true
	}
}

// PassErrorKind classifies how a pass ended.
type PassErrorKind string

const (
	PassErrorFatal    PassErrorKind = "fatal"
	PassErrorCanceled PassErrorKind = "canceled"
)

// PassError wraps the failure of one pass.
type PassError struct {
	Kind PassErrorKind
	Pass string
	Err  error
}

func (e *PassError) Error() string { return fmt.Sprintf("%s pass %s: %v", e.Kind, e.Pass, e.Err) }
func (e *PassError) Unwrap() error { return e.Err }

// passFunc adapts a function to Pass.
type passFunc struct {
	name string
	deps Dependencies
	fn   func(ctx context.Context, b *Build) error
}

func (p passFunc) Name() string                            { return p.name }
func (p passFunc) Dependencies() Dependencies              { return p.deps }
func (p passFunc) Run(ctx context.Context, b *Build) error { return p.fn(ctx, b) }

// NewPass builds a Pass from a function.
func NewPass(name string, deps Dependencies, fn func(ctx context.Context, b *Build) error) Pass {
	return passFunc{name: name, deps: deps, fn: fn}
}
