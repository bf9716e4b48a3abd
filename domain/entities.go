// Package domain provides canonical type definitions for dogstore entities.
package domain

import "time"

// DogInput is the caller-supplied part of a record, as accepted by POST /dogs.
// It never carries an identifier.
type DogInput struct {
	// Name is the dog's name. Required, non-blank.
	Name string `json:"name" dynamodbav:"name"`

	// Breed is the dog's breed. Required, non-blank.
	Breed string `json:"breed" dynamodbav:"breed"`
}

// WithID attaches a system-assigned identifier, producing a complete record.
func (in DogInput) WithID(id string) Dog {
	return Dog{
		ID:    id,
		Name:  in.Name,
		Breed: in.Breed,
	}
}

// Dog is the persisted entity record. The item shape in the table is exactly
// {id: S, name: S, breed: S}, with id as the partition key.
type Dog struct {
	// ID is the unique, system-assigned identifier (UUID).
	ID string `json:"id" dynamodbav:"id"`

	// Name is the dog's name.
	Name string `json:"name" dynamodbav:"name"`

	// Breed is the dog's breed.
	Breed string `json:"breed" dynamodbav:"breed"`
}

// Input returns the caller-supplied fields of the record.
func (d Dog) Input() DogInput {
	return DogInput{Name: d.Name, Breed: d.Breed}
}

// WriteReceipt is the acknowledgment returned by a successful store write.
type WriteReceipt struct {
	// Table is the name of the table (or backend) the record was written to.
	Table string `json:"table"`

	// RequestID is the confirmation token of the write. For DynamoDB this is
	// the AWS request ID.
	RequestID string `json:"request_id"`

	// ConsumedWriteCapacity is the number of write capacity units consumed,
	// when reported by the backend.
	ConsumedWriteCapacity float64 `json:"consumed_write_capacity,omitempty"`

	// Attempts is the number of put attempts it took, including the
	// successful one. Set by the orchestrator.
	Attempts int `json:"attempts"`

	// WrittenAt is when the write was acknowledged.
	WrittenAt time.Time `json:"written_at"`
}
