package console

import (
	"errors"
	"strconv"
	"strings"
)

var ErrUsage = errors.New("usage: connect <host> <port>")

type CommandKind int

const (
	CommandEmpty CommandKind = iota
	CommandChat
	CommandConnect
	CommandClear
	CommandPeers
	CommandHelp
	CommandQuit
)

type Command struct {
	Kind CommandKind
	// Text is the chat body for CommandChat.
	Text string
	Host string
	Port int
}

// ParseCommand classifies one input line. Only connect can fail, with ErrUsage.
func ParseCommand(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: CommandEmpty}, nil
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "connect":
		if len(fields) != 3 {
			return Command{}, ErrUsage
		}
		port, err := strconv.Atoi(fields[2])
		if err != nil || port < 1 || port > 65535 {
			return Command{}, ErrUsage
		}
		return Command{Kind: CommandConnect, Host: fields[1], Port: port}, nil
	case "/clear":
		return Command{Kind: CommandClear}, nil
	case "/peers":
		return Command{Kind: CommandPeers}, nil
	case "/help":
		return Command{Kind: CommandHelp}, nil
	case "/quit", "/exit":
		return Command{Kind: CommandQuit}, nil
	}
	return Command{Kind: CommandChat, Text: strings.TrimRight(line, "\r\n")}, nil
}
