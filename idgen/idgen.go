// Package idgen produces identifiers for new records.
//
// Identifiers are random (version 4) UUIDs. Uniqueness is statistical: no
// counter, lock or store round-trip is involved, so generators are safe for
// concurrent use from independent requests without coordination.
package idgen

import (
	"github.com/google/uuid"

	"github.com/input-output-hk/dogstore/errors"
)

// Generator produces a globally unique identifier on each call.
type Generator interface {
	// Generate returns a fresh identifier. An error means the entropy source
	// failed; callers must treat it as fatal for the current request.
	Generate() (string, error)
}

// Func adapts an ordinary function to the Generator interface.
type Func func() (string, error)

// Generate calls f.
func (f Func) Generate() (string, error) {
	return f()
}

// UUIDGenerator generates random UUID strings.
type UUIDGenerator struct{}

// New returns the default generator.
func New() UUIDGenerator {
	return UUIDGenerator{}
}

// Generate returns a new random UUID in its canonical string form.
func (UUIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeIDGeneration, "failed to generate identifier")
	}
	return id.String(), nil
}
