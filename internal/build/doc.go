// Package build runs a whole book build: load the source tree, run the
// passes, render the site and record the outcome.
//
// All execution paths (the build and check commands, the watcher, tests)
// route through BuildService so they share logging, metrics and the
// history ledger.
package build
