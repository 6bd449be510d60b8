package console

import (
	"errors"
	"testing"

	"github.com/danmuck/sketchnet/internal/testutil/testlog"
)

func TestParseCommand(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		line string
		want Command
	}{
		{"", Command{Kind: CommandEmpty}},
		{"   ", Command{Kind: CommandEmpty}},
		{"connect 192.168.0.7 5000", Command{Kind: CommandConnect, Host: "192.168.0.7", Port: 5000}},
		{"  connect   localhost 1  ", Command{Kind: CommandConnect, Host: "localhost", Port: 1}},
		{"/clear", Command{Kind: CommandClear}},
		{"/peers", Command{Kind: CommandPeers}},
		{"/help", Command{Kind: CommandHelp}},
		{"/quit", Command{Kind: CommandQuit}},
		{"/exit", Command{Kind: CommandQuit}},
		{"hello: world", Command{Kind: CommandChat, Text: "hello: world"}},
		{"connected!", Command{Kind: CommandChat, Text: "connected!"}},
	}
	for _, tc := range cases {
		got, err := ParseCommand(tc.line)
		if err != nil {
			t.Fatalf("ParseCommand(%q): unexpected err: %v", tc.line, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCommand(%q): got %+v want %+v", tc.line, got, tc.want)
		}
	}
}

func TestParseCommandUsage(t *testing.T) {
	testlog.Start(t)

	for _, line := range []string{"connect", "connect host", "connect host port", "connect host 0", "connect host 70000", "connect a b c"} {
		if _, err := ParseCommand(line); !errors.Is(err, ErrUsage) {
			t.Fatalf("ParseCommand(%q): expected ErrUsage, got %v", line, err)
		}
	}
	if ErrUsage.Error() != "usage: connect <host> <port>" {
		t.Fatalf("unexpected usage text: %q", ErrUsage.Error())
	}
}
