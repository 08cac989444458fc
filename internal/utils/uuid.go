package utils

import "github.com/google/uuid"

// UUIDGenerator produces identifiers for device identity. UUIDv7 keeps ids
// time-sortable; v4 is the fallback when the monotonic source fails.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
