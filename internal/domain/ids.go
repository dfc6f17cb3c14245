package domain

import (
	"github.com/google/uuid"
)

// Entity id prefixes
const (
	PrefixCustomer     = "C"
	PrefixOffer        = "O"
	PrefixInvoice      = "I"
	PrefixSubscription = "S"
	PrefixProject      = "P"
	PrefixMilestone    = "M"
	PrefixFile         = "F"
	PrefixHistory      = "H"
)

// IDGenerator produces identifiers for new entities
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator builds ids from the entity prefix and a time-ordered UUIDv7
type UUIDGenerator struct{}

// NewID returns prefix followed by a UUID
func (UUIDGenerator) NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + id.String()
}
