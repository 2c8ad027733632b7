package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidKey is returned when a string is not a well-formed store key.
var ErrInvalidKey = errors.New("invalid store key")

// ErrAlreadyExists is returned when inserting a record whose key is taken.
var ErrAlreadyExists = errors.New("already exists")

// ErrEmptyPatch is returned when an update carries no fields.
var ErrEmptyPatch = errors.New("empty patch")
