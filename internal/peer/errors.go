package peer

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentity   = errors.New("peer: invalid identity")
	ErrInvalidAddress    = errors.New("peer: invalid address")
	ErrAlreadyConnected  = errors.New("peer: already connected to a peer")
	ErrConnectFailed     = errors.New("peer: connect failed")
	ErrConnectionRefused = fmt.Errorf("%w: connection refused", ErrConnectFailed)
	ErrSendFailed        = errors.New("peer: send failed")
	ErrActionApplication = errors.New("peer: apply remote action failed")
	ErrManagerClosed     = errors.New("peer: manager closed")
)
