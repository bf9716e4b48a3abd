// Package workflow orchestrates the record creation pipeline.
//
// An execution is a small state machine driven synchronously within a single
// request:
//
//	START -> GENERATING_ID -> PERSISTING -> DONE
//	  |            |              |
//	  +------------+--------------+--> FAILED(stage)
//
// START enforces the entry guard (an invalid payload never reaches
// GENERATING_ID). GENERATING_ID asks the identifier generator for a fresh ID
// and attaches it to the payload. PERSISTING writes the record, retrying
// Throttled and Unavailable store failures under a bounded RetryPolicy.
//
// Every failure is converted into a single Outcome at this boundary; no
// compensating action is taken, since a failure before or during PERSISTING
// means nothing was written. Executions retain no state across requests and
// never deduplicate: the same input run twice yields two records with
// distinct IDs.
package workflow
