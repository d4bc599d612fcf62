package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Registries, stores and
// authenticators return these (wrapped with context) so callers can branch
// with errors.Is without knowing which backend produced them.
//
//   - ErrNotFound: nothing is registered or stored under the requested key
//   - ErrConflict: the key is already claimed (e.g. duplicate operation name)
//   - ErrInvalidState: the component is in the wrong state for the call
//   - ErrUnavailable: a backing service could not be reached
//   - ErrUnauthorized: the caller's credentials were missing or rejected
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)
