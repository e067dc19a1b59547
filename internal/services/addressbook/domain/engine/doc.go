// Package engine runs commands against any aggregate: load the stream, fold it
// to state, decide, append what was decided.
//
// Aggregates plug in as plain functions, so the load/fold/decide/append
// sequence exists exactly once regardless of how many aggregate kinds the
// service grows.
package engine
