// Package domain provides canonical type definitions for dogstore entities.
//
// This package is Layer 0 of the service: a zero-dependency library of pure
// data structures with struct tags for JSON (HTTP API) and DynamoDB
// (attributevalue) serialization. Every other package imports it; it imports
// nothing but the standard library.
//
// # Domain Model
//
//   - Records: DogInput (caller supplied), Dog (persisted, carries ID)
//   - Persistence: WriteReceipt (acknowledgment metadata of a store write)
//   - Pipeline: Stage, State (the orchestrator state machine vocabulary)
//   - Events: TransitionEvent (one per state machine move)
//
// # Record Lifecycle
//
// A DogInput is decoded at the HTTP boundary and validated. The orchestrator
// assigns an ID, producing a Dog, and hands it to the record store, which is
// the sole durable owner after a successful write:
//
//	input := domain.DogInput{Name: "Rex", Breed: "Labrador"}
//	dog := input.WithID("6f1c7e52-...")
//
// The ID field is immutable once set; nothing in this module rewrites the ID
// of an existing record.
//
// # What This Package Does NOT Include
//
//   - Validation (see package validation)
//   - Persistence logic (see package store)
//   - HTTP handlers (see package api)
package domain
