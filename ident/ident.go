// Package ident provides the opaque per-player routing key used to
// correlate backend commands with the events they produce.
package ident

import "github.com/google/uuid"

// ID identifies one logical player for the lifetime of its instance.
// It is the sole correlation key across the backend command interface
// and the event bus. IDs are comparable and usable as map keys.
type ID string

// New returns a fresh collision-free ID.
func New() ID {
	return ID(uuid.NewString())
}

// String returns the ID value.
func (id ID) String() string {
	return string(id)
}
