// Package bridge exposes the local canvas to browsers and operators.
//
// Ownership boundary:
// - Hub: wraps the drawing engine and chat display, fans remote activity out to
//   WebSocket clients, and turns browser input into local actions plus peer
//   broadcasts
// - Server: gin HTTP surface (health, readiness, metrics, peers, canvas, ws)
//
// Browser frames are wire payloads without a sender ("pen:...", "clear",
// "msg:..."). Frames sent to browsers are JSON Events.
package bridge
