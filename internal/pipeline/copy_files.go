package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	ferrors "github.com/cempisirgen/mccole/internal/foundation/errors"
	"github.com/cempisirgen/mccole/internal/logfields"
)

// CopyFiles copies every source file matching a copy pattern, at any depth,
// to the same relative location under the output directory.
func CopyFiles() Pass {
	return NewPass(PassCopyFiles, Dependencies{Produces: []Resource{ResAssets}},
		func(ctx context.Context, b *Build) error {
			src := b.Config.SourcePath()
			out := b.Config.OutputPath()
			copied := 0
			for _, pat := range b.Config.Copy {
				matches, err := doublestar.Glob(os.DirFS(src), "**/"+pat, doublestar.WithFilesOnly())
				if err != nil {
					return ferrors.ConfigError("invalid copy pattern").
						WithContext("pattern", pat).WithCause(err).Build()
				}
				for _, rel := range matches {
					if err := ctx.Err(); err != nil {
						return err
					}
					from := filepath.Join(src, filepath.FromSlash(rel))
					to := filepath.Join(out, filepath.FromSlash(rel))
					if err := copyFile(from, to); err != nil {
						return err
					}
					copied++
					slog.Debug("Copied asset", logfields.File(rel))
				}
			}
			slog.Info("Assets copied", logfields.Count(copied))
			return nil
		})
}

func copyFile(from, to string) error {
	fail := func(err error, msg string) error {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).
			Fatal().WithContext("file", from).WithContext("target", to).Build()
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o750); err != nil {
		return fail(err, "cannot create output directory")
	}
	in, err := os.Open(filepath.Clean(from))
	if err != nil {
		return fail(err, "cannot open asset")
	}
	defer func() { _ = in.Close() }()

	dst, err := os.Create(filepath.Clean(to))
	if err != nil {
		return fail(err, "cannot create asset copy")
	}
	if _, err := io.Copy(dst, in); err != nil {
		_ = dst.Close()
		return fail(err, "cannot copy asset")
	}
	if err := dst.Close(); err != nil {
		return fail(err, "cannot finish asset copy")
	}
	return nil
}
