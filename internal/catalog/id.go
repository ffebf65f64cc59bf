package catalog

import "github.com/google/uuid"

// IDGenerator produces candidate channel ids. The catalog retries on
// collision, so implementations only need to be unlikely to repeat.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random (version 4) UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
