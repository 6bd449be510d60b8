// Package console is the interactive command loop of a peer.
//
// Input grammar:
// - connect <host> <port>
// - /clear, /peers, /help, /quit (/exit)
// - anything else is chat
//
// Remote chat and connection notices are printed in color through Printer,
// which also satisfies peer.ChatSink.
package console
