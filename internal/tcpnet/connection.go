package tcpnet

import (
	"net"
	"sync"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/netaddr"
)

// Connection is a single (from, to) TCP pairing: an owned socket (once
// dialing completes) plus an outbound queue drained by the writer/reader
// goroutine pair the endpoint spawns for this connection.
type Connection struct {
	id   uint64
	from netaddr.Address
	to   netaddr.Address

	outbound  chan []byte
	closedCh  chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	conn   net.Conn
	isOpen bool
}

func newConnection(id uint64, from, to netaddr.Address) *Connection {
	return &Connection{
		id:       id,
		from:     from,
		to:       to,
		outbound: make(chan []byte, 64),
		closedCh: make(chan struct{}),
	}
}

// ID returns the connection's process-unique identifier.
func (c *Connection) ID() uint64 { return c.id }

// From returns the connection's source address.
func (c *Connection) From() netaddr.Address { return c.from }

// To returns the connection's destination address.
func (c *Connection) To() netaddr.Address { return c.to }

// IsOpen reports whether the socket is currently connected.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}

// send queues buf on the connection's outbound channel. Writes happen on
// the connection's writer goroutine once dialing has completed. send never
// sends on outbound once the connection has been marked closed — closedCh
// is only ever closed, never outbound itself, so neither this nor the
// writer's receive can panic on a closed channel.
func (c *Connection) send(buf []byte) {
	select {
	case <-c.closedCh:
		return
	default:
	}
	select {
	case c.outbound <- buf:
	case <-c.closedCh:
	default:
		// Outbound queue full; never block the submitting worker.
	}
}

func (c *Connection) setOpen(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.isOpen = true
}

// markClosed marks the connection closed, closes the underlying socket if
// one was open, and signals closedCh so the reader/writer goroutines for
// this connection stop rather than leak. Idempotent.
func (c *Connection) markClosed() {
	c.mu.Lock()
	conn := c.conn
	c.isOpen = false
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	c.closeOnce.Do(func() { close(c.closedCh) })
}

func (c *Connection) socket() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
