// Package repository defines error types that are reused across
// repositories.  Handlers only need to know that the store failed, not
// why, so every ORM failure is collapsed into ErrStorage.
package repository

import "errors"

// ErrStorage wraps any failure reported by the store: lost connections,
// constraint violations and timeouts alike.  Handlers should translate it
// into an HTTP 500 response without exposing the wrapped detail.
var ErrStorage = errors.New("storage error")
