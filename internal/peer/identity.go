package peer

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/danmuck/sketchnet/internal/protocol"
)

// Identity is the local peer's display name and listen endpoint, fixed at startup.
type Identity struct {
	DisplayName string
	ListenAddr  string
}

// NewIdentity trims and validates name and listenAddr.
func NewIdentity(name, listenAddr string) (Identity, error) {
	id := Identity{
		DisplayName: strings.TrimSpace(name),
		ListenAddr:  strings.TrimSpace(listenAddr),
	}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// Validate rejects names that would corrupt the sender token of every message.
func (i Identity) Validate() error {
	if i.DisplayName == "" {
		return fmt.Errorf("%w: empty display name", ErrInvalidIdentity)
	}
	if strings.ContainsAny(i.DisplayName, protocol.Separator+protocol.Delimiter) {
		return fmt.Errorf("%w: display name %q contains %q or a newline", ErrInvalidIdentity, i.DisplayName, protocol.Separator)
	}
	if _, _, err := SplitAddr(i.ListenAddr); err != nil {
		return fmt.Errorf("%w: listen address: %w", ErrInvalidIdentity, err)
	}
	return nil
}

// SplitAddr splits host:port and checks the port range. An empty host means all
// interfaces.
func SplitAddr(addr string) (string, int, error) {
	host, rawPort, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, addr, err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: %q: bad port", ErrInvalidAddress, addr)
	}
	return host, port, nil
}

// JoinAddr builds a dial address, rejecting ports outside 1..65535.
func JoinAddr(host string, port int) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("%w: empty host", ErrInvalidAddress)
	}
	if port < 1 || port > 65535 {
		return "", fmt.Errorf("%w: port %d", ErrInvalidAddress, port)
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
