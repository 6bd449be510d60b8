package peer

import "sync"

// ConnectionSet is the bounded set of live connections. Capacity checks and
// insertion happen under one lock so two racing accepts cannot both pass.
type ConnectionSet struct {
	mu    sync.RWMutex
	max   int
	conns []*Conn
}

// NewConnectionSet returns a set holding at most max connections (minimum 1).
func NewConnectionSet(max int) *ConnectionSet {
	if max < 1 {
		max = 1
	}
	return &ConnectionSet{max: max}
}

// TryAdd reserves a slot and inserts c, or reports false when at capacity.
func (s *ConnectionSet) TryAdd(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.conns) >= s.max {
		return false
	}
	for _, existing := range s.conns {
		if existing == c {
			return false
		}
	}
	s.conns = append(s.conns, c)
	return true
}

// Remove deletes c and reports whether it was present.
func (s *ConnectionSet) Remove(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.conns {
		if existing == c {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot copies the live connections for iteration outside the lock.
func (s *ConnectionSet) Snapshot() []*Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Conn, len(s.conns))
	copy(out, s.conns)
	return out
}

func (s *ConnectionSet) Contains(c *Conn) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, existing := range s.conns {
		if existing == c {
			return true
		}
	}
	return false
}

func (s *ConnectionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}

func (s *ConnectionSet) Cap() int {
	return s.max
}

func (s *ConnectionSet) Full() bool {
	return s.Len() >= s.max
}
