package errors

import "errors"

// Sentinel causes wrapped by the classified errors the pipeline raises.
// Tests and callers match them with errors.Is.
var (
	ErrUnknownSlug         = errors.New("slug not known")
	ErrMissingMeta         = errors.New("page metadata missing")
	ErrMissingTag          = errors.New("page has no tag")
	ErrMissingSlug         = errors.New("directive has no slug")
	ErrUnterminated        = errors.New("unterminated directive")
	ErrDuplicateReference  = errors.New("cross-reference slug declared twice")
	ErrUnknownReference    = errors.New("cross-reference target not declared")
	ErrAmbiguousLabel      = errors.New("figure or table label not unique")
	ErrDuplicateLink       = errors.New("link key declared twice")
	ErrBadLinkRecord       = errors.New("link record needs key and url")
	ErrMissingFile         = errors.New("referenced file missing")
	ErrUnknownCitation     = errors.New("citation key not in bibliography")
	ErrMissingPrerequisite = errors.New("pass prerequisite not produced")
)
