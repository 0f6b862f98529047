package repository

import "errors"

var (
	// ErrAlreadyExists is returned on a unique violation: a registered chat or a delivered notification key.
	ErrAlreadyExists = errors.New("error already exists")
	ErrNotFound      = errors.New("error not found")
)
