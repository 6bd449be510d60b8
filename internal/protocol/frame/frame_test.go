package frame

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/sketchnet/internal/testutil/testlog"
)

func TestFeedSplitMidLine(t *testing.T) {
	testlog.Start(t)

	f := NewFramer(DefaultLimits())
	stream := "alice:msg:hi\nalice:pen:#000000:2:10:10:20:20:\n"
	cut := strings.Index(stream, "pen") + 2

	first, err := f.Feed([]byte(stream[:cut]))
	if err != nil {
		t.Fatalf("feed first: %v", err)
	}
	second, err := f.Feed([]byte(stream[cut:]))
	if err != nil {
		t.Fatalf("feed second: %v", err)
	}
	got := append(first, second...)
	want := []string{"alice:msg:hi", "alice:pen:#000000:2:10:10:20:20:"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected messages: got=%q want=%q", got, want)
	}
	if f.Buffered() != 0 {
		t.Fatalf("expected empty buffer, pending=%q", f.Pending())
	}
}

func TestFeedPackedAndEmptyLines(t *testing.T) {
	testlog.Start(t)

	f := NewFramer(DefaultLimits())
	got, err := f.Feed([]byte("\na:msg:1\n\n\nb:clear\nc:msg:par"))
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	want := []string{"a:msg:1", "b:clear"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected messages: got=%q want=%q", got, want)
	}
	if f.Pending() != "c:msg:par" {
		t.Fatalf("unexpected pending: %q", f.Pending())
	}
}

func TestFeedChunkBoundaryIndependence(t *testing.T) {
	testlog.Start(t)

	stream := "alice:msg:olá mundo\n\nbob:rectangle:#000:3:9:9:1:1:\nbob:text:#000:12:1:1:::a:b\n\ncarol:fechar\n"
	var want []string
	for _, line := range strings.Split(stream, "\n") {
		if line != "" {
			want = append(want, line)
		}
	}

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		f := NewFramer(DefaultLimits())
		var got []string
		data := []byte(stream)
		for len(data) > 0 {
			n := 1 + rng.Intn(len(data))
			lines, err := f.Feed(data[:n])
			if err != nil {
				t.Fatalf("round %d feed: %v", round, err)
			}
			got = append(got, lines...)
			data = data[n:]
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round %d mismatch: got=%q want=%q", round, got, want)
		}
	}
}

func TestFeedLineTooLong(t *testing.T) {
	testlog.Start(t)

	f := NewFramer(Limits{MaxLineBytes: 8})
	lines, err := f.Feed([]byte("a:msg:1\nthis-line-never-ends"))
	if !errors.Is(err, ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
	if len(lines) != 1 || lines[0] != "a:msg:1" {
		t.Fatalf("complete lines must still be returned: %q", lines)
	}
}
