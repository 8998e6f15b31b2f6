package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// document, day, item, or index does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. malformed time, index out of range, bad import file).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when an insert collides with existing state,
// such as adding an admin email that is already on the list.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the acting user lacks the admin role.
// Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthorized is returned when a request carries no valid identity.
// Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrWriteFailed is returned when a change was applied locally but the
// remote document write failed. The local state stays applied until the
// next remote delivery replaces it.
// Handlers should map this to HTTP 503.
var ErrWriteFailed = errors.New("write failed")
