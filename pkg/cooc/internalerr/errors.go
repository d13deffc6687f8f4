package internalerr

import "errors"

// Sentinel errors shared by the cooc packages
var (
	ErrInvalidInputKind = errors.New("invalid input kind")
	ErrNotFitted        = errors.New("vocabulary not fitted")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
