package peer

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/danmuck/sketchnet/internal/observability"
	"github.com/danmuck/sketchnet/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Engine is the drawing engine boundary. ApplyRemoteAction receives the full
// line (sender included, delimiter stripped) and may fail on bad input.
type Engine interface {
	ApplyRemoteAction(raw string) error
	ClearCanvas()
}

// ChatSink displays chat from remote peers.
type ChatSink interface {
	ShowChat(sender, text string)
}

// Outcome tells the receive loop what to do after one message.
type Outcome int

const (
	OutcomeHandled Outcome = iota
	OutcomeDropped
	OutcomeClose
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHandled:
		return observability.ResultDispatched
	case OutcomeDropped:
		return observability.ResultDropped
	case OutcomeClose:
		return observability.ResultClosed
	default:
		return "unknown"
	}
}

// Dispatcher routes decoded messages. A bad message never ends the connection;
// only a close message does.
type Dispatcher struct {
	engine Engine
	chat   ChatSink
}

func NewDispatcher(engine Engine, chat ChatSink) *Dispatcher {
	if engine == nil {
		engine = nopEngine{}
	}
	if chat == nil {
		chat = LogChat{}
	}
	return &Dispatcher{engine: engine, chat: chat}
}

// Dispatch handles one framed line received from remote.
func (d *Dispatcher) Dispatch(remote, line string) Outcome {
	msg, err := protocol.ParseMessage(line)
	if err != nil {
		log.Warn().
			Err(err).
			Str("remote", remote).
			Str("line", truncate(line, logPreviewBytes)).
			Msg("peer.Dispatcher.Dispatch malformed message dropped")
		observability.RecordMessage("malformed", observability.ResultDropped)
		return OutcomeDropped
	}

	out := d.route(remote, msg)
	observability.RecordMessage(msg.Kind.String(), out.String())
	return out
}

func (d *Dispatcher) route(remote string, msg protocol.Message) Outcome {
	switch msg.Kind {
	case protocol.KindChat:
		d.chat.ShowChat(msg.Sender, msg.Text())
		return OutcomeHandled
	case protocol.KindClear:
		if err := d.clear(); err != nil {
			log.Error().Err(err).Str("remote", remote).Str("sender", msg.Sender).Msg("peer.Dispatcher.Dispatch clear failed")
			return OutcomeDropped
		}
		log.Info().Str("remote", remote).Str("sender", msg.Sender).Msg("peer.Dispatcher.Dispatch canvas cleared by peer")
		return OutcomeHandled
	case protocol.KindClose:
		log.Info().Str("remote", remote).Str("sender", msg.Sender).Msg("peer.Dispatcher.Dispatch peer requested close")
		return OutcomeClose
	case protocol.KindDrawAction:
		if err := d.apply(msg.Raw); err != nil {
			log.Error().
				Err(err).
				Str("remote", remote).
				Str("tool", string(msg.Tool)).
				Msg("peer.Dispatcher.Dispatch drawing action dropped")
			return OutcomeDropped
		}
		return OutcomeHandled
	default:
		return OutcomeDropped
	}
}

// apply isolates engine failures, panics included, from the receive loop.
func (d *Dispatcher) apply(raw string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrActionApplication, r)
		}
	}()
	if applyErr := d.engine.ApplyRemoteAction(raw); applyErr != nil {
		if errors.Is(applyErr, ErrActionApplication) {
			return applyErr
		}
		return fmt.Errorf("%w: %w", ErrActionApplication, applyErr)
	}
	return nil
}

func (d *Dispatcher) clear() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: clear panic: %v", ErrActionApplication, r)
		}
	}()
	d.engine.ClearCanvas()
	return nil
}

type nopEngine struct{}

func (nopEngine) ApplyRemoteAction(string) error { return nil }
func (nopEngine) ClearCanvas()                   {}

// LogChat writes remote chat to the process logger; used when no console is attached.
type LogChat struct{}

func (LogChat) ShowChat(sender, text string) {
	log.Info().Str("sender", sender).Str("text", text).Msg("peer.chat")
}

const logPreviewBytes = 256

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
