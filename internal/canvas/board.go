package canvas

import (
	"sync"

	"github.com/danmuck/sketchnet/internal/protocol"
)

// Background is the canvas color; the eraser paints with it.
const Background = "white"

type Shape string

const (
	ShapeStroke Shape = "stroke"
	ShapeRect   Shape = "rect"
	ShapeOval   Shape = "oval"
	ShapeText   Shape = "text"
)

// Op is one rendered primitive.
type Op struct {
	Seq    uint64        `json:"seq"`
	Sender string        `json:"sender,omitempty"`
	Tool   protocol.Tool `json:"tool"`
	Shape  Shape         `json:"shape"`
	Color  string        `json:"color"`
	// Width is the stroke or outline width in pixels.
	Width int            `json:"width"`
	From  protocol.Point `json:"from"`
	To    protocol.Point `json:"to"`
	// Box is set for ShapeRect and ShapeOval.
	Box      protocol.Rect `json:"box"`
	Text     string        `json:"text,omitempty"`
	FontSize int           `json:"font_size,omitempty"`
}

// Render maps an action onto the primitive it draws. It reports false for
// actions that draw nothing (empty text).
func Render(sender string, a protocol.DrawAction) (Op, bool) {
	op := Op{
		Sender: sender,
		Tool:   a.Tool,
		Color:  a.Color,
		Width:  a.Size,
		From:   a.From,
		To:     a.To,
	}
	switch a.Tool {
	case protocol.ToolPen, protocol.ToolLine:
		op.Shape = ShapeStroke
	case protocol.ToolEraser:
		op.Shape = ShapeStroke
		op.Color = Background
		op.Width = 2 * a.Size
	case protocol.ToolRectangle:
		op.Shape = ShapeRect
		op.Box = a.Bounds()
	case protocol.ToolCircle:
		op.Shape = ShapeOval
		op.Box = a.Bounds()
	case protocol.ToolText:
		if a.Text == "" {
			return Op{}, false
		}
		op.Shape = ShapeText
		op.Width = 0
		op.To = protocol.Point{}
		op.Text = a.Text
		op.FontSize = max(1, a.Size)
	default:
		return Op{}, false
	}
	return op, true
}

// Board is a concurrency-safe display list. It satisfies the peer engine
// boundary (ApplyRemoteAction, ClearCanvas).
type Board struct {
	mu  sync.RWMutex
	ops []Op
	seq uint64
}

func NewBoard() *Board {
	return &Board{}
}

// ApplyRemoteAction decodes a full wire line and draws it.
func (b *Board) ApplyRemoteAction(raw string) error {
	sender, a, err := protocol.ParseAction(raw)
	if err != nil {
		return err
	}
	b.draw(sender, a)
	return nil
}

// Apply draws a locally originated action.
func (b *Board) Apply(a protocol.DrawAction) error {
	if err := a.Validate(); err != nil {
		return err
	}
	b.draw("", a)
	return nil
}

func (b *Board) draw(sender string, a protocol.DrawAction) {
	op, ok := Render(sender, a)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	op.Seq = b.seq
	b.ops = append(b.ops, op)
}

func (b *Board) ClearCanvas() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = nil
}

// Ops returns a copy of the display list in draw order.
func (b *Board) Ops() []Op {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.ops)
}
