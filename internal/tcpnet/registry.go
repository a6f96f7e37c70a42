package tcpnet

import (
	"sync"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/netaddr"
)

// Registry is the ConnectionRegistry: an ordered set of connections keyed
// by (from, to), mutated only from the TcpEndpoint's worker. At most one
// *open* connection per (from, to) pair is ever returned by Get; closed
// entries stay in the registry until Destroy or Sweep removes them.
type Registry struct {
	mu     sync.Mutex
	conns  []*Connection
	nextID uint64
}

// NewRegistry returns an empty ConnectionRegistry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Get returns the first open connection matching (from, to), or nil.
func (r *Registry) Get(from, to netaddr.Address) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		if c.IsOpen() && c.From().Equal(from) && c.To().Equal(to) {
			return c
		}
	}
	return nil
}

// Create allocates a new connection for (from, to), assigns it the next
// process-unique id, and adds it to the registry.
func (r *Registry) Create(from, to netaddr.Address) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c := newConnection(r.nextID, from, to)
	r.conns = append(r.conns, c)
	return c
}

// Destroy removes the connection with the given id, closing its socket if
// still open.
func (r *Registry) Destroy(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.conns {
		if c.ID() == id {
			c.markClosed()
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			return
		}
	}
}

// Sweep drops closed connections from the registry. It is the background
// cleanup the design allows for (no TTL required).
func (r *Registry) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	live := r.conns[:0]
	for _, c := range r.conns {
		if c.IsOpen() {
			live = append(live, c)
		}
	}
	r.conns = live
}

// Len reports the number of tracked connections, open or closed.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll marks every tracked connection closed — open, still dialing, or
// already closed — and empties the registry. Used by Endpoint.Stop to tear
// down every connection's reader/writer goroutines and socket on shutdown,
// the way TcpNet::stop() tears down its io_service in the original.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		c.markClosed()
	}
	r.conns = nil
}
