// Package errors provides the classified error primitives used by every mccole pass.
//
// A book build fails fast: each defect found in configuration, content or
// resources becomes a ClassifiedError carrying the category, severity and the
// context needed to locate it (file, slug, directive arguments).
//
// Example usage:
//
//	err := errors.ContentError("figure directive has no slug").
//		WithContext("file", node.FilePath).
//		WithContext("args", raw).
//		WithCause(errors.ErrMissingSlug).
//		Build()
package errors
