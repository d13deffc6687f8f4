package vectorizer

import "github.com/cognicore/cooc/pkg/cooc/internalerr"

// Errors returned by the engine. They alias the shared sentinels so callers
// can match with errors.Is against either package.
var (
	ErrInvalidInputKind = internalerr.ErrInvalidInputKind
	ErrNotFitted        = internalerr.ErrNotFitted
	ErrNotFound         = internalerr.ErrNotFound
	ErrInvalidInput     = internalerr.ErrInvalidInput
	ErrInvalidConfig    = internalerr.ErrInvalidConfig
)
