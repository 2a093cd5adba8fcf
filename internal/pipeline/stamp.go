package pipeline

import (
	"context"
	"log/slog"
	"time"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/git"
)

// DateLayout is the format of State.Date.
const DateLayout = "2006-01-02 15:04:05"

// Stamp records the build time and the source revision.
type Stamp struct {
	Now      func() time.Time
	Revision func(dir string) (git.Revision, error)
}

// NewStamp uses the wall clock and the enclosing git repository.
func NewStamp() *Stamp {
	return &Stamp{Now: time.Now, Revision: git.Head}
}

func (s *Stamp) Name() string { return PassStamp }

func (s *Stamp) Dependencies() Dependencies {
	return Dependencies{Produces: []Resource{ResDate}}
}

func (s *Stamp) Run(_ context.Context, b *Build) error {
	b.State.Date = s.Now().UTC().Truncate(time.Second).Format(DateLayout)
	if s.Revision == nil {
		return nil
	}
	rev, err := s.Revision(b.Config.Root)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read source revision").
			Fatal().WithContext("dir", b.Config.Root).Build()
	}
	b.State.Revision = rev.Hash
	slog.Debug("Build stamped", slog.String("date", b.State.Date), slog.String("revision", rev.Short()))
	return nil
}
