package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/sketchnet/internal/testutil/testlog"
)

func TestLoadServiceConfigExample(t *testing.T) {
	testlog.Start(t)

	cfg, err := loadServiceConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "alice" {
		t.Fatalf("unexpected name: %q", cfg.Name)
	}
	if cfg.ListenAddr != "0.0.0.0:5000" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if len(cfg.Connect) != 1 || cfg.Connect[0] != "192.168.0.7:5000" {
		t.Fatalf("unexpected connect list: %+v", cfg.Connect)
	}
	if cfg.HTTPAddr != "127.0.0.1:7080" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("unexpected cors origins: %+v", cfg.CORSOrigins)
	}
	if cfg.Session.ConnectTimeout != 3*time.Second || cfg.Session.WriteTimeout != 2*time.Second {
		t.Fatalf("unexpected timeouts: %+v", cfg.Session)
	}
	if cfg.Session.MaxLineBytes != 65536 {
		t.Fatalf("unexpected max line bytes: %d", cfg.Session.MaxLineBytes)
	}
	if cfg.Console {
		t.Fatalf("expected console disabled")
	}
	if cfg.HistoryFile != "/tmp/sketchpeer_history" {
		t.Fatalf("unexpected history file: %q", cfg.HistoryFile)
	}
}

func TestLoadServiceConfigKeepsDefaults(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("name = \"bob\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := loadServiceConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Name != "bob" || cfg.ListenAddr != "0.0.0.0:5000" || cfg.MaxPeers != 1 || !cfg.Console {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Session.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected connect timeout: %v", cfg.Session.ConnectTimeout)
	}
}

func TestLoadServiceConfigErrors(t *testing.T) {
	testlog.Start(t)

	cases := []string{
		"connect_timeout = \"abc\"\n",
		"write_timeout = \"later\"\n",
		"listen_port = 5000\n",
		"max_line_bytes = -1\n",
	}
	for _, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := loadServiceConfig(path); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}

func TestParseArgsFlagsOverrideFile(t *testing.T) {
	testlog.Start(t)

	cfg, err := parseArgs([]string{
		"-config", "ex.config.toml",
		"-name", "carol",
		"-listen", "127.0.0.1:6000",
		"-connect", "10.0.0.1:5000",
		"-connect", "10.0.0.2:5000",
		"-no-console=false",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.Name != "carol" || cfg.ListenAddr != "127.0.0.1:6000" {
		t.Fatalf("flags did not override file: %+v", cfg)
	}
	if len(cfg.Connect) != 2 || cfg.Connect[1] != "10.0.0.2:5000" {
		t.Fatalf("unexpected connect list: %+v", cfg.Connect)
	}
	if !cfg.Console {
		t.Fatalf("explicit -no-console=false should enable the console")
	}
	if cfg.HTTPAddr != "127.0.0.1:7080" {
		t.Fatalf("file value lost: %q", cfg.HTTPAddr)
	}

	if _, err := parseArgs([]string{"-bogus"}, io.Discard); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}
