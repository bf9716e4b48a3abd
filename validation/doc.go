// Package validation checks inbound record payloads against the dog schema.
//
// The schema is written in CUE and compiled once per Validator:
//
//	#Dog: {
//		name:  string & =~"\\S"
//		breed: string & =~"\\S"
//		...
//	}
//
// Every regular field of #Dog is required. The trailing ellipsis keeps the
// schema open, so unknown fields are ignored. A payload is checked field by
// field and every violation is reported, not only the first one, so a caller
// gets a complete error report in one round trip.
//
// Validation has no side effects. A Validator is safe for concurrent use.
package validation
