package issuance

import "errors"

// ErrUnsupportedKind is recorded when an operation kind has no pipeline.
var ErrUnsupportedKind = errors.New("unsupported operation kind")

// ErrContextRequired is returned for a nil context.
var ErrContextRequired = errors.New("context is required")
