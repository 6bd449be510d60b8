package peer

import (
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/danmuck/sketchnet/internal/testutil/testlog"
)

func TestDispatcherRoutesByKind(t *testing.T) {
	testlog.Start(t)

	engine := &recordingEngine{}
	chat := &recordingChat{}
	d := NewDispatcher(engine, chat)

	cases := []struct {
		line string
		want Outcome
	}{
		{"bob:msg:a:b:c", OutcomeHandled},
		{"bob:clear", OutcomeHandled},
		{"bob:rectangle:#ff0000:3:50:80:10:20:", OutcomeHandled},
		{"bob:text:#000000:12:5:6:::hi: there", OutcomeHandled},
		{"eve:badmessage", OutcomeDropped},
		{"eve", OutcomeDropped},
		{"bob:pen:#000000:x:1:1:2:2:", OutcomeDropped},
		{"bob:fechar", OutcomeClose},
	}
	for _, tc := range cases {
		if got := d.Dispatch("127.0.0.1:9", tc.line); got != tc.want {
			t.Fatalf("dispatch %q: got %s want %s", tc.line, got, tc.want)
		}
	}

	lines := chat.snapshot()
	if len(lines) != 1 || lines[0] != (chatLine{sender: "bob", text: "a:b:c"}) {
		t.Fatalf("unexpected chat lines: %+v", lines)
	}
	actions, clears := engine.snapshot()
	if clears != 1 {
		t.Fatalf("unexpected clear count: %d", clears)
	}
	want := []string{"bob:rectangle:#ff0000:3:50:80:10:20:", "bob:text:#000000:12:5:6:::hi: there"}
	if len(actions) != len(want) {
		t.Fatalf("unexpected actions: %q", actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("action %d: got %q want %q", i, actions[i], want[i])
		}
	}
}

func TestDispatcherIsolatesEngineFailures(t *testing.T) {
	testlog.Start(t)

	engine := &recordingEngine{panicOn: "bob:pen:#000000:1:0:0:1:1:"}
	d := NewDispatcher(engine, &recordingChat{})
	if got := d.Dispatch("r", "bob:pen:#000000:1:0:0:1:1:"); got != OutcomeDropped {
		t.Fatalf("panicking engine: got %s", got)
	}

	engine.err = errors.New("bad color")
	if got := d.Dispatch("r", "bob:line:nope:1:0:0:1:1:"); got != OutcomeDropped {
		t.Fatalf("failing engine: got %s", got)
	}
	if err := d.apply("bob:line:nope:1:0:0:1:1:"); !errors.Is(err, ErrActionApplication) {
		t.Fatalf("expected ErrActionApplication, got %v", err)
	}
}

func TestDispatcherNilCollaborators(t *testing.T) {
	testlog.Start(t)

	d := NewDispatcher(nil, nil)
	if got := d.Dispatch("r", "bob:msg:hi"); got != OutcomeHandled {
		t.Fatalf("unexpected outcome: %s", got)
	}
	if got := d.Dispatch("r", "bob:clear"); got != OutcomeHandled {
		t.Fatalf("unexpected outcome: %s", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	testlog.Start(t)

	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	// "olá" is o, l, then a two-byte á; a 3-byte cap lands inside it.
	got := truncate("olá mundo", 3)
	if got != "ol..." {
		t.Fatalf("unexpected: %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("invalid utf-8: %q", got)
	}
	if got := truncate("日本語", 4); got != "日..." {
		t.Fatalf("unexpected: %q", got)
	}
}
