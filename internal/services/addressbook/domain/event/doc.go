// Package event defines the stored form of domain events and the event log
// contract every backend implements.
//
// Aggregates never see envelopes directly: they work with their own closed
// event types and rely on a codec to move between the two. The log only knows
// streams, per-stream sequence numbers and an ever-increasing global position.
package event
