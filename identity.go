package wrapz

import "github.com/google/uuid"

// Identity names a wrapper for error paths and signals. Two identities with
// the same name are still distinct: each carries its own random ID.
//
// Define identities once and reuse them:
//
//	var LimitID = wrapz.NewIdentity("limit-sends", "Allows three sends per process")
type Identity struct {
	id          uuid.UUID
	name        Name
	description string
}

// NewIdentity creates an identity with a fresh ID.
func NewIdentity(name Name, description string) Identity {
	return Identity{
		id:          uuid.New(),
		name:        name,
		description: description,
	}
}

// ID returns the unique identifier.
func (i Identity) ID() uuid.UUID { return i.id }

// Name returns the human-readable name.
func (i Identity) Name() Name { return i.name }

// Description returns the optional description.
func (i Identity) Description() string { return i.description }

// String returns the name.
func (i Identity) String() string { return i.name }
