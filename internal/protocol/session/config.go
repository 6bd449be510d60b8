package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/sketchnet/internal/protocol/frame"
)

var ErrInvalidConfig = errors.New("session: invalid config")

// Config defines transport defaults for one peer link.
type Config struct {
	ConnectTimeout  time.Duration
	WriteTimeout    time.Duration
	ReadBufferBytes int
	MaxLineBytes    int
}

// DefaultConfig returns the link defaults: 4096-byte reads, bounded lines and
// short write deadlines so a stuck peer cannot stall a broadcast.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:  5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ReadBufferBytes: frame.ReadSize,
		MaxLineBytes:    frame.DefaultLimits().MaxLineBytes,
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadBufferBytes <= 0 {
		c.ReadBufferBytes = def.ReadBufferBytes
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = def.MaxLineBytes
	}
	return c
}

// Validate rejects negative sizes; zero means default.
func (c Config) Validate() error {
	if c.ReadBufferBytes < 0 {
		return fmt.Errorf("%w: read_buffer_bytes=%d", ErrInvalidConfig, c.ReadBufferBytes)
	}
	if c.MaxLineBytes < 0 {
		return fmt.Errorf("%w: max_line_bytes=%d", ErrInvalidConfig, c.MaxLineBytes)
	}
	return nil
}

// FrameLimits maps the link config onto framer limits.
func (c Config) FrameLimits() frame.Limits {
	return frame.Limits{MaxLineBytes: c.MaxLineBytes}
}
