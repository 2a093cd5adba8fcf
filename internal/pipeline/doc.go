// Package pipeline runs the build passes over a loaded document tree.
//
// Each Pass declares the resources it requires and produces. Resolve orders
// the passes with Kahn's algorithm so that every consumer runs after its
// producer; passes with no constraint between them keep their declared
// order. The Runner executes the resolved order once, stopping at the first
// error.
package pipeline
