package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Printer writes user-facing output. It is safe for concurrent use so receive
// loops can print chat while the prompt is active.
type Printer struct {
	mu     sync.Mutex
	out    io.Writer
	sender *color.Color
	notice *color.Color
	err    *color.Color
	header *color.Color
}

func NewPrinter(out io.Writer, noColor bool) *Printer {
	if out == nil {
		out = os.Stdout
	}
	p := &Printer{
		out:    out,
		sender: color.New(color.FgCyan, color.Bold),
		notice: color.New(color.FgGreen),
		err:    color.New(color.FgRed),
		header: color.New(color.FgMagenta),
	}
	if noColor {
		for _, c := range []*color.Color{p.sender, p.notice, p.err, p.header} {
			c.DisableColor()
		}
	}
	return p
}

// SetOutput redirects output, e.g. to the readline stdout so the prompt is redrawn.
func (p *Printer) SetOutput(out io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = out
}

// ShowChat prints "[sender] text".
func (p *Printer) ShowChat(sender, text string) {
	p.println(p.sender.Sprintf("[%s]", sender) + " " + text)
}

func (p *Printer) Notice(format string, args ...any) {
	p.println(p.notice.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...any) {
	p.println(p.err.Sprintf(format, args...))
}

func (p *Printer) Help() {
	p.println(p.header.Sprint("Commands:"))
	p.println("  connect <host> <port>  - connect to a peer")
	p.println("  /clear                 - clear the canvas here and on peers")
	p.println("  /peers                 - list live connections")
	p.println("  /help                  - show this help")
	p.println("  /quit                  - disconnect and exit")
	p.println("  <text>                 - send chat to every peer")
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
}
