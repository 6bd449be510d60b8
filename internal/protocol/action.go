package protocol

import (
	"strconv"
	"strings"
)

// Tool names one drawing primitive on the wire.
type Tool string

const (
	ToolPen       Tool = "pen"
	ToolEraser    Tool = "eraser"
	ToolLine      Tool = "line"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolText      Tool = "text"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolPen, ToolEraser, ToolLine, ToolRectangle, ToolCircle, ToolText}

const (
	// actionFields is color:size:x1:y1:x2:y2 (extra is optional on decode for non-text tools).
	actionFields = 6
	// textFields is color:size:x1:y1:text, the shortest text form.
	textFields = 5
)

// ParseTool maps a kind token to a tool.
func ParseTool(raw string) (Tool, bool) {
	switch t := Tool(strings.TrimSpace(raw)); t {
	case ToolPen, ToolEraser, ToolLine, ToolRectangle, ToolCircle, ToolText:
		return t, true
	default:
		return "", false
	}
}

// IsBoxed reports whether the tool renders inside the bounding box of its two corners.
func (t Tool) IsBoxed() bool {
	return t == ToolRectangle || t == ToolCircle
}

// Point is one integer canvas coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a normalized box with Min <= Max on both axes.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// NormalizeRect orders two arbitrary drag corners into a box.
func NormalizeRect(a, b Point) Rect {
	return Rect{
		Min: Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: Point{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}
}

// DrawAction is one stroke, shape or text insertion to replay on a remote canvas.
type DrawAction struct {
	Tool  Tool   `json:"tool"`
	Color string `json:"color"`
	Size  int    `json:"size"`
	From  Point  `json:"from"`
	// To is unused for ToolText.
	To Point `json:"to"`
	// Text is the payload for ToolText and empty otherwise.
	Text string `json:"text,omitempty"`
}

// Bounds returns the normalized box spanned by From and To.
func (a DrawAction) Bounds() Rect {
	return NormalizeRect(a.From, a.To)
}

// Validate checks the fields the wire cannot represent.
func (a DrawAction) Validate() error {
	if _, ok := ParseTool(string(a.Tool)); !ok {
		return malformed(ErrInvalidTool, "%q", a.Tool)
	}
	if strings.TrimSpace(a.Color) == "" {
		return malformed(ErrMissingField, "color")
	}
	if strings.ContainsAny(a.Color, Separator+Delimiter) {
		return malformed(ErrInvalidField, "color %q contains a separator", a.Color)
	}
	if a.Size < 0 {
		return malformed(ErrInvalidNumber, "size %d", a.Size)
	}
	if strings.Contains(a.Text, Delimiter) {
		return malformed(ErrInvalidField, "text contains a line delimiter")
	}
	return nil
}

// Encode returns the payload tool:color:size:x1:y1:x2:y2:extra without a sender.
func (a DrawAction) Encode() string {
	x2, y2, extra := strconv.Itoa(a.To.X), strconv.Itoa(a.To.Y), ""
	if a.Tool == ToolText {
		x2, y2, extra = "", "", a.Text
	}
	return strings.Join([]string{
		string(a.Tool),
		a.Color,
		strconv.Itoa(a.Size),
		strconv.Itoa(a.From.X),
		strconv.Itoa(a.From.Y),
		x2,
		y2,
		extra,
	}, Separator)
}

// ParseAction decodes a complete drawing-action line (sender included), the form
// handed to the drawing engine.
func ParseAction(line string) (string, DrawAction, error) {
	msg, err := ParseMessage(line)
	if err != nil {
		return "", DrawAction{}, err
	}
	if msg.Kind != KindDrawAction {
		return "", DrawAction{}, malformed(ErrInvalidTool, "kind %s is not a drawing action", msg.Kind)
	}
	return msg.Sender, msg.Action, nil
}

func decodeAction(tool Tool, fields []string) (DrawAction, error) {
	need := actionFields
	if tool == ToolText {
		need = textFields
	}
	if len(fields) < need {
		return DrawAction{}, malformed(ErrMissingField, "%s needs %d fields, got %d", tool, need, len(fields))
	}

	a := DrawAction{Tool: tool, Color: fields[0]}
	if strings.TrimSpace(a.Color) == "" {
		return DrawAction{}, malformed(ErrMissingField, "%s color", tool)
	}
	var err error
	if a.Size, err = atoi("size", fields[1]); err != nil {
		return DrawAction{}, err
	}
	if a.Size < 0 {
		return DrawAction{}, malformed(ErrInvalidNumber, "size %d", a.Size)
	}
	if a.From.X, err = atoi("x1", fields[2]); err != nil {
		return DrawAction{}, err
	}
	if a.From.Y, err = atoi("y1", fields[3]); err != nil {
		return DrawAction{}, err
	}

	if tool == ToolText {
		a.Text = textPayload(fields[textFields-1:])
		return a, nil
	}
	if a.To.X, err = atoi("x2", fields[4]); err != nil {
		return DrawAction{}, err
	}
	if a.To.Y, err = atoi("y2", fields[5]); err != nil {
		return DrawAction{}, err
	}
	return a, nil
}

// textPayload picks the text out of the tokens after y1. Three layouts are in
// use: x2:y2:text with empty or numeric placeholders, a single empty
// placeholder before the text, and the text alone. Colons inside the text are
// restored in every layout.
func textPayload(rest []string) string {
	switch {
	case len(rest) >= 3 && isPlaceholder(rest[0]) && isPlaceholder(rest[1]):
		return strings.Join(rest[2:], Separator)
	case len(rest) >= 2 && rest[0] == "":
		return strings.Join(rest[1:], Separator)
	default:
		return strings.Join(rest, Separator)
	}
}

func isPlaceholder(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	_, err := strconv.Atoi(raw)
	return err == nil
}

func atoi(name, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, malformed(ErrInvalidNumber, "%s=%q", name, raw)
	}
	return v, nil
}
