// Package protocol owns the peer wire contract and its parsing primitives.
//
// Ownership boundary:
// - colon-delimited message grammar (sender:kind[:field]*)
// - message kinds: chat, clear, close, drawing actions
// - drawing action encode/decode and bounding-box normalization
//
// Framing of the byte stream into lines lives in protocol/frame. Nothing in this
// package performs I/O.
//
// Wire notes:
// - fields are never escaped, so free text (chat body, text payload) is always last
// - a message needs at least sender and kind; anything shorter is malformed
// - drawing actions always encode seven fields: color:size:x1:y1:x2:y2:extra
package protocol
