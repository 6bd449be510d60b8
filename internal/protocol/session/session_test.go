package session

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/sketchnet/internal/protocol/frame"
	"github.com/danmuck/sketchnet/internal/testutil/testlog"
)

func TestWithDefaultsFillsZeroValues(t *testing.T) {
	testlog.Start(t)

	cfg := Config{WriteTimeout: 2 * time.Second}.WithDefaults()
	if cfg.WriteTimeout != 2*time.Second {
		t.Fatalf("explicit write timeout overwritten: %v", cfg.WriteTimeout)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected connect timeout: %v", cfg.ConnectTimeout)
	}
	if cfg.ReadBufferBytes != frame.ReadSize {
		t.Fatalf("unexpected read size: %d", cfg.ReadBufferBytes)
	}
	if cfg.FrameLimits().MaxLineBytes != frame.DefaultLimits().MaxLineBytes {
		t.Fatalf("unexpected frame limits: %+v", cfg.FrameLimits())
	}
}

func TestValidateRejectsNegativeReadSize(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultConfig()
	cfg.ReadBufferBytes = -1
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
