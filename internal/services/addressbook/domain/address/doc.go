// Package address models a profile's postal addresses and the one-time revert
// machinery attached to every change.
//
// Each action (create, field change, delete) issues a fresh revert token and
// records what it would undo in State.PendingReverts. Redeeming a token emits a
// correction event that applies the inverse change and consumes the token
// without issuing a new one, so an undo can never itself be undone. Whether a
// token is still redeemable is a map lookup on folded state, not a history scan.
package address
