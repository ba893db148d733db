// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a write that contradicts the entity's current state.
var ErrConflict = errors.New("conflict: resource is in an incompatible state")

// ErrValidation indicates malformed caller input.
var ErrValidation = errors.New("validation failed")
