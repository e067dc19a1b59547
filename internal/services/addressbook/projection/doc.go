// Package projection builds the addressbook read model from immutable event
// history.
//
// Five indexes answer every lookup the use cases need without replaying a
// stream: profile name to profile id, (owner, label) to address id, revert
// token to address id, address id back to its (owner, label), and owner to its
// live address ids. Indexes are only ever written by projecting events, so the
// whole read model can be rebuilt by replaying the log from position zero.
package projection
