package services

import "github.com/google/uuid"

// IDAllocator hands out identifiers for new catalog entries
type IDAllocator interface {
	NewID() string
}

// UUIDAllocator returns random (version 4) UUIDs read from crypto/rand. It keeps no state.
type UUIDAllocator struct{}

func (UUIDAllocator) NewID() string {
	return uuid.NewString()
}
