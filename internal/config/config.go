package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

// PeerConfig is the on-disk schema of a sketchpeer config file. Durations are
// Go duration strings ("5s", "250ms").
type PeerConfig struct {
	Name            string   `toml:"name"`
	ListenAddr      string   `toml:"listen_addr"`
	MaxPeers        int      `toml:"max_peers"`
	Connect         []string `toml:"connect"`
	HTTPAddr        string   `toml:"http_addr"`
	CORSOrigins     []string `toml:"cors_origins"`
	ConnectTimeout  string   `toml:"connect_timeout"`
	WriteTimeout    string   `toml:"write_timeout"`
	ReadBufferBytes int      `toml:"read_buffer_bytes"`
	MaxLineBytes    int      `toml:"max_line_bytes"`
	Console         *bool    `toml:"console"`
	HistoryFile     string   `toml:"history_file"`
}

// LoadPeerConfig parses path strictly: unknown keys are errors.
func LoadPeerConfig(path string) (PeerConfig, error) {
	var cfg PeerConfig
	if err := loadToml(path, &cfg); err != nil {
		return PeerConfig{}, err
	}
	if err := ValidatePeerConfig(cfg); err != nil {
		return PeerConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config parse failed (%s): unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidatePeerConfig(cfg PeerConfig) error {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}
	if strings.ContainsAny(name, ":\n") {
		return fmt.Errorf("%w: name %q must not contain ':' or newlines", ErrInvalidConfig, name)
	}
	if err := validateAddr("listen_addr", cfg.ListenAddr, true); err != nil {
		return err
	}
	if cfg.MaxPeers < 0 {
		return fmt.Errorf("%w: max_peers=%d", ErrInvalidConfig, cfg.MaxPeers)
	}
	for i, addr := range cfg.Connect {
		if err := validateAddr(fmt.Sprintf("connect[%d]", i), addr, false); err != nil {
			return err
		}
	}
	if strings.TrimSpace(cfg.HTTPAddr) != "" {
		if err := validateAddr("http_addr", cfg.HTTPAddr, true); err != nil {
			return err
		}
	}
	for _, key := range []struct{ name, raw string }{
		{"connect_timeout", cfg.ConnectTimeout},
		{"write_timeout", cfg.WriteTimeout},
	} {
		if _, err := ParseDuration(key.raw); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key.name, err)
		}
	}
	if cfg.ReadBufferBytes < 0 {
		return fmt.Errorf("%w: read_buffer_bytes=%d", ErrInvalidConfig, cfg.ReadBufferBytes)
	}
	if cfg.MaxLineBytes < 0 {
		return fmt.Errorf("%w: max_line_bytes=%d", ErrInvalidConfig, cfg.MaxLineBytes)
	}
	return nil
}

// ParseDuration accepts an empty string as zero (use the default).
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}

func validateAddr(key, addr string, allowEmptyHost bool) error {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, addr, err)
	}
	if host == "" && !allowEmptyHost {
		return fmt.Errorf("%w: %s=%q: host required", ErrInvalidConfig, key, addr)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 || (n == 0 && !allowEmptyHost) {
		return fmt.Errorf("%w: %s=%q: bad port", ErrInvalidConfig, key, addr)
	}
	return nil
}
