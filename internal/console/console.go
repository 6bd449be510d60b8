package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/danmuck/sketchnet/internal/peer"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Connector is the peer manager surface the console drives.
type Connector interface {
	Connect(ctx context.Context, host string, port int) (peer.PeerInfo, error)
	Peers() []peer.PeerInfo
}

type Broadcaster interface {
	BroadcastChat(text string) int
	BroadcastClear() int
}

// Clearer is the local drawing engine, cleared before /clear is broadcast.
type Clearer interface {
	ClearCanvas()
}

type Config struct {
	Name        string
	Peers       Connector
	Broadcast   Broadcaster
	Canvas      Clearer
	Printer     *Printer
	HistoryFile string
	// In defaults to os.Stdin. Readline is used only when In is a terminal.
	In io.Reader
}

type Console struct {
	name        string
	peers       Connector
	broadcast   Broadcaster
	canvas      Clearer
	printer     *Printer
	historyFile string
	in          io.Reader
}

func New(cfg Config) *Console {
	if cfg.Printer == nil {
		cfg.Printer = NewPrinter(nil, color.NoColor)
	}
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	return &Console{
		name:        cfg.Name,
		peers:       cfg.Peers,
		broadcast:   cfg.Broadcast,
		canvas:      cfg.Canvas,
		printer:     cfg.Printer,
		historyFile: cfg.HistoryFile,
		in:          cfg.In,
	}
}

func (c *Console) Printer() *Printer {
	return c.printer
}

// Run reads commands until /quit, end of input, or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	src, err := c.open()
	if err != nil {
		return err
	}
	defer src.Close()

	type readResult struct {
		line string
		err  error
	}
	results := make(chan readResult)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			line, err := src.ReadLine()
			select {
			case results <- readResult{line: line, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	c.printer.Help()
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-results:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return nil
				}
				return res.err
			}
			if c.Execute(ctx, res.line) {
				return nil
			}
		}
	}
}

// Execute runs one input line and reports whether the loop should end.
func (c *Console) Execute(ctx context.Context, line string) bool {
	cmd, err := ParseCommand(line)
	if err != nil {
		c.printer.Error("%v", err)
		return false
	}

	switch cmd.Kind {
	case CommandEmpty:
	case CommandConnect:
		c.connect(ctx, cmd.Host, cmd.Port)
	case CommandClear:
		if c.canvas != nil {
			c.canvas.ClearCanvas()
		}
		n := c.broadcast.BroadcastClear()
		c.printer.Notice("canvas cleared (%d peer(s) notified)", n)
	case CommandPeers:
		c.listPeers()
	case CommandHelp:
		c.printer.Help()
	case CommandQuit:
		c.printer.Notice("bye")
		return true
	case CommandChat:
		if c.broadcast.BroadcastChat(cmd.Text) == 0 {
			c.printer.Notice("no peers connected, message not delivered")
		}
	}
	return false
}

func (c *Console) connect(ctx context.Context, host string, port int) {
	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	info, err := c.peers.Connect(dialCtx, host, port)
	switch {
	case err == nil:
		c.printer.Notice("connected to %s", info.RemoteAddr)
	case errors.Is(err, peer.ErrAlreadyConnected):
		c.printer.Error("%s", peer.BusyNotice)
	case errors.Is(err, peer.ErrConnectionRefused):
		c.printer.Error("connection refused by %s:%d", host, port)
	default:
		log.Debug().Err(err).Str("host", host).Int("port", port).Msg("console.Console.connect failed")
		c.printer.Error("connect failed: %v", err)
	}
}

func (c *Console) listPeers() {
	peers := c.peers.Peers()
	if len(peers) == 0 {
		c.printer.Notice("no live connections")
		return
	}
	for _, p := range peers {
		c.printer.Notice("#%d %s %s since %s", p.ID, p.Direction, p.RemoteAddr, p.ConnectedAt.Format(time.TimeOnly))
	}
}

type lineSource interface {
	ReadLine() (string, error)
	Close() error
}

func (c *Console) open() (lineSource, error) {
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return c.openReadline()
	}
	return &scannerSource{scanner: bufio.NewScanner(c.in)}, nil
}

func (c *Console) openReadline() (lineSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      color.GreenString("%s> ", c.name),
		HistoryFile: c.historyFile,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("connect"),
			readline.PcItem("/clear"),
			readline.PcItem("/peers"),
			readline.PcItem("/help"),
			readline.PcItem("/quit"),
			readline.PcItem("/exit"),
		),
		InterruptPrompt: "^C",
		EOFPrompt:       "/quit",
	})
	if err != nil {
		return nil, err
	}
	c.printer.SetOutput(rl.Stdout())
	return &readlineSource{rl: rl, printer: c.printer}, nil
}

type readlineSource struct {
	rl      *readline.Instance
	printer *Printer
}

func (s *readlineSource) ReadLine() (string, error) {
	line, err := s.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (s *readlineSource) Close() error {
	s.printer.SetOutput(os.Stdout)
	return s.rl.Close()
}

type scannerSource struct {
	scanner *bufio.Scanner
}

func (s *scannerSource) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scannerSource) Close() error {
	return nil
}
