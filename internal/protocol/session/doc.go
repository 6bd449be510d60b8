// Package session owns per-link transport settings shared by every peer
// connection.
//
// Ownership boundary:
// - dial and write timeouts
// - receive chunk size and framer limits
// - defaults and normalization of zero values
package session
