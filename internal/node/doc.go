// Package node wires one runnable peer: link manager, canvas, browser bridge,
// HTTP surface and console.
//
// Lifecycle:
// - NewServiceWithConfig validates identity and builds collaborators
// - Run/RunContext binds the listener, dials boot peers once, starts the
//   optional HTTP bridge and console, then blocks
// - shutdown broadcasts a close message to every peer and closes all links
package node
