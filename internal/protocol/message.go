package protocol

import "strings"

const (
	// Separator splits every token of a message; it is never escaped.
	Separator = ":"
	// Delimiter terminates one message on the stream.
	Delimiter = "\n"

	WireChat  = "msg"
	WireClear = "clear"
	WireClose = "fechar"
)

// Kind classifies a decoded message for dispatch.
type Kind int

const (
	KindChat Kind = iota + 1
	KindClear
	KindClose
	KindDrawAction
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindClear:
		return "clear"
	case KindClose:
		return "close"
	case KindDrawAction:
		return "draw"
	default:
		return "unknown"
	}
}

// Message is one decoded line. It is transient and never retained past dispatch.
type Message struct {
	Sender string
	Kind   Kind
	// Tool is set only for KindDrawAction.
	Tool Tool
	// Fields holds the raw tokens after the kind, in wire order.
	Fields []string
	// Action is the decoded drawing action for KindDrawAction.
	Action DrawAction
	// Raw is the original line without the delimiter.
	Raw string
}

// Text returns the chat body with embedded separators restored.
func (m Message) Text() string {
	return strings.Join(m.Fields, Separator)
}

// ParseMessage decodes one framed line. Drawing actions are fully decoded so a
// malformed action is rejected here rather than inside the drawing engine.
func ParseMessage(line string) (Message, error) {
	line = strings.TrimSuffix(line, Delimiter)
	parts := strings.Split(line, Separator)
	if len(parts) < 2 {
		return Message{}, malformed(ErrMissingField, "need sender and kind, got %d token(s)", len(parts))
	}
	sender := strings.TrimSpace(parts[0])
	if sender == "" {
		return Message{}, malformed(ErrEmptySender, "%q", line)
	}
	kind := strings.TrimSpace(parts[1])
	msg := Message{
		Sender: sender,
		Fields: parts[2:],
		Raw:    line,
	}

	switch kind {
	case WireChat:
		msg.Kind = KindChat
	case WireClear:
		msg.Kind = KindClear
	case WireClose:
		msg.Kind = KindClose
	default:
		tool, ok := ParseTool(kind)
		if !ok {
			return Message{}, malformed(ErrUnknownKind, "%q", kind)
		}
		action, err := decodeAction(tool, msg.Fields)
		if err != nil {
			return Message{}, err
		}
		msg.Kind = KindDrawAction
		msg.Tool = tool
		msg.Action = action
	}
	return msg, nil
}

// EncodeChat returns the chat payload for text. Text is placed last so embedded
// separators survive.
func EncodeChat(text string) string {
	return WireChat + Separator + text
}

// EncodeClear returns the canvas-clear payload.
func EncodeClear() string {
	return WireClear
}

// EncodeClose returns the graceful disconnect payload.
func EncodeClose() string {
	return WireClose
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// SingleLine drops a trailing line ending and turns embedded line breaks into
// spaces, so s always travels as exactly one message.
func SingleLine(s string) string {
	return lineBreaks.Replace(strings.TrimRight(s, "\r\n"))
}

// FormatLine prefixes payload with the sender and appends the delimiter.
func FormatLine(sender, payload string) string {
	return sender + Separator + strings.TrimSuffix(payload, Delimiter) + Delimiter
}
