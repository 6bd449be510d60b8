package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sketchnet/internal/node"
)

// sketchpeer config.toml key mapping to node runtime settings.
type fileConfig struct {
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
	Console         bool     `toml:"console"`
	HistoryFile     string   `toml:"history_file"`
}

// sketchpeer loader for TOML config with default overlay.
func loadServiceConfig(path string) (node.ServiceConfig, error) {
	cfg := node.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return node.ServiceConfig{}, fmt.Errorf("load sketchpeer config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return node.ServiceConfig{}, fmt.Errorf("load sketchpeer config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("max_peers") {
		cfg.MaxPeers = raw.MaxPeers
	}
	if meta.IsDefined("connect") {
		cfg.Connect = normalizeList(raw.Connect)
	}
	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins)
	}
	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return node.ServiceConfig{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.Session.ConnectTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return node.ServiceConfig{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Session.WriteTimeout = d
	}
	if meta.IsDefined("read_buffer_bytes") {
		cfg.Session.ReadBufferBytes = raw.ReadBufferBytes
	}
	if meta.IsDefined("max_line_bytes") {
		cfg.Session.MaxLineBytes = raw.MaxLineBytes
	}
	if meta.IsDefined("console") {
		cfg.Console = raw.Console
	}
	if meta.IsDefined("history_file") {
		cfg.HistoryFile = strings.TrimSpace(raw.HistoryFile)
	}

	if err := cfg.Session.Validate(); err != nil {
		return node.ServiceConfig{}, fmt.Errorf("load sketchpeer config: %w", err)
	}
	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
