package frame

import (
	"bytes"
	"errors"
)

const (
	Delimiter byte = '\n'
	// ReadSize is the per-read chunk size used by receive loops.
	ReadSize = 4096
)

var ErrLineTooLong = errors.New("frame: line exceeds max length")

// Limits constrains framer memory use.
type Limits struct {
	// MaxLineBytes bounds a buffered partial line; 0 disables the bound.
	MaxLineBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxLineBytes: 1024 * 1024,
	}
}

// Framer turns one connection's byte stream into delimiter-terminated messages.
// It is owned by a single receive loop and is not safe for concurrent use.
type Framer struct {
	buf    []byte
	limits Limits
}

func NewFramer(limits Limits) *Framer {
	return &Framer{limits: limits}
}

// Feed appends chunk and returns every complete non-empty message it closes,
// in stream order. Bytes after the last delimiter stay buffered for the next
// call. Lines are split on bytes, so a multi-byte rune cut across reads is
// reassembled before it is decoded.
func (f *Framer) Feed(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)

	var out []string
	for {
		i := bytes.IndexByte(f.buf, Delimiter)
		if i < 0 {
			break
		}
		if i > 0 {
			out = append(out, string(f.buf[:i]))
		}
		f.buf = f.buf[i+1:]
	}

	if len(f.buf) == 0 {
		f.buf = nil
	} else if f.limits.MaxLineBytes > 0 && len(f.buf) > f.limits.MaxLineBytes {
		return out, ErrLineTooLong
	}
	return out, nil
}

// Pending returns the buffered partial line, for diagnostics.
func (f *Framer) Pending() string {
	return string(f.buf)
}

// Buffered reports how many bytes await a delimiter.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
