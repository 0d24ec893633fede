// Package storage defines persistence errors shared by blog stores.
//
// Store interfaces live with their consumers (the auth and post services);
// this package holds the sentinel errors every implementation must return so
// callers can branch on outcome without knowing the backing engine.
package storage

import "github.com/inkstream/inkstream/internal/platform/errors"

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New(errors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
var ErrAlreadyExists = errors.New(errors.CodeAlreadyExists, "record already exists")
