package database

import "errors"

// Store level errors shared by every catalog backend
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)
