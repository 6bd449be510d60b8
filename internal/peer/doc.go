// Package peer owns the peer link layer.
//
// Ownership boundary:
// - listening endpoint and accept loop
// - outbound connect
// - bounded live connection set (max peers)
// - one receive loop per connection feeding a framer
// - dispatch of framed messages to chat display or the drawing engine
// - broadcast of local messages to every live connection
//
// Lifecycle of one connection:
// - accepted or dialed -> registered -> receive loop -> removed
//
// - removal happens on EOF, read error, framer overflow or a close message
//
// - a failed send is logged but does not remove the connection; the receive
//   loop observes the broken link and removes it
//
// The drawing engine is an external collaborator reached only through Engine.
package peer
