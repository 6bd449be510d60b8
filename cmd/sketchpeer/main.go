package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danmuck/sketchnet/internal/logging"
	"github.com/danmuck/sketchnet/internal/node"
)

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, strings.TrimSpace(v))
	return nil
}

// parseArgs builds the service config: defaults, then the config file, then
// any flag given explicitly.
func parseArgs(args []string, stderr io.Writer) (node.ServiceConfig, error) {
	fs := flag.NewFlagSet("sketchpeer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML config file")
	name := fs.String("name", "", "display name sent with every message")
	listen := fs.String("listen", "", "peer listen address (host:port)")
	httpAddr := fs.String("http", "", "HTTP bridge address; empty disables it")
	maxPeers := fs.Int("max-peers", 0, "maximum live peer connections")
	noConsole := fs.Bool("no-console", false, "run without the interactive console")
	noColor := fs.Bool("no-color", false, "disable colored console output")
	var connect stringList
	fs.Var(&connect, "connect", "host:port to dial on startup (repeatable)")
	if err := fs.Parse(args); err != nil {
		return node.ServiceConfig{}, err
	}

	cfg := node.DefaultServiceConfig()
	if *configPath != "" {
		loaded, err := loadServiceConfig(*configPath)
		if err != nil {
			return node.ServiceConfig{}, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = strings.TrimSpace(*name)
		case "listen":
			cfg.ListenAddr = strings.TrimSpace(*listen)
		case "http":
			cfg.HTTPAddr = strings.TrimSpace(*httpAddr)
		case "max-peers":
			cfg.MaxPeers = *maxPeers
		case "no-console":
			cfg.Console = !*noConsole
		case "no-color":
			cfg.NoColor = *noColor
		case "connect":
			cfg.Connect = normalizeList(connect)
		}
	})
	return cfg, nil
}

func main() {
	logging.ConfigureRuntime()

	cfg, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "sketchpeer: %v\n", err)
		os.Exit(2)
	}

	svc, err := node.NewServiceWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sketchpeer: %v\n", err)
		os.Exit(1)
	}
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "sketchpeer: %v\n", err)
		os.Exit(1)
	}
}
