// Package common defines sentinel errors shared by the repository, service
// and transport layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("duplicate user")

	// Service-level errors.
	ErrInternal = errors.New("internal error")
)
