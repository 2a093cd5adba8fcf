// Package history keeps an optional SQLite ledger of builds and the content
// fingerprint of every page each build saw.
//
// The ledger is operational history only: no build reads it back into its
// State.
package history
