// Package tcpnet is the TcpEndpoint: it multiplexes outbound sends over a
// ConnectionRegistry keyed by (from, to), dialing lazily and writing on a
// per-connection goroutine pair once the dial completes.
package tcpnet

import (
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/dataunit"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/netaddr"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/worker"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// Router is the narrow view of the router this endpoint needs.
type Router interface {
	Process(unit *dataunit.Unit)
}

const defaultDialTimeout = 10 * time.Second

// Endpoint is the TcpEndpoint component.
type Endpoint struct {
	log         *zap.SugaredLogger
	queue       *worker.Queue
	registry    *Registry
	router      Router
	dialTimeout time.Duration

	sweepStop chan struct{}
	sweepDone chan struct{}
}

// New constructs a TcpEndpoint.
func New(log *zap.SugaredLogger, router Router) *Endpoint {
	return &Endpoint{
		log:         log,
		queue:       worker.New(log.Named("queue")),
		registry:    NewRegistry(),
		router:      router,
		dialTimeout: defaultDialTimeout,
	}
}

// Start starts the command worker and a background sweep goroutine that
// periodically has the worker drop closed connections from the registry.
func (e *Endpoint) Start() {
	e.queue.Start()
	e.sweepStop = make(chan struct{})
	e.sweepDone = make(chan struct{})
	go e.sweepLoop()
}

// Stop stops the background sweep, closes every tracked connection (open,
// still dialing, or already closed) so their reader/writer goroutines and
// sockets don't outlive the endpoint, then stops the command worker.
// Closing the registry is itself run on the command worker to preserve the
// invariant that it is mutated only from there.
func (e *Endpoint) Stop() {
	close(e.sweepStop)
	<-e.sweepDone

	closed := make(chan struct{})
	e.queue.Process(func() {
		e.registry.CloseAll()
		close(closed)
	})
	<-closed

	e.queue.Stop()
}

// Send enqueues buf for delivery to to, over the connection for (from, to),
// creating one lazily if none is open. to.Origin() must be OriginTCP; a
// violation is a programmer error, logged and dropped.
func (e *Endpoint) Send(from, to netaddr.Address, buf []byte) {
	e.queue.Process(func() {
		e.onSend(from, to, buf)
	})
}

// Destroy removes and closes the connection with the given id.
func (e *Endpoint) Destroy(id uint64) {
	e.queue.Process(func() {
		e.registry.Destroy(id)
	})
}

func (e *Endpoint) onSend(from, to netaddr.Address, buf []byte) {
	if to.Origin() != netaddr.OriginTCP {
		e.log.Errorw("tcp endpoint Send() precondition violated", "error", xgwerr.ErrPrecondition, "to", to)
		return
	}
	conn := e.registry.Get(from, to)
	if conn == nil {
		conn = e.registry.Create(from, to)
		e.log.Debugw("tcp endpoint creating connection", "id", conn.ID(), "from", from, "to", to)
		e.dial(conn)
	}
	conn.send(buf)
}

func (e *Endpoint) dial(c *Connection) {
	go func() {
		addr := net.JoinHostPort(c.To().Host(), strconv.Itoa(int(c.To().Port())))
		conn, err := net.DialTimeout("tcp", addr, e.dialTimeout)
		if err != nil {
			e.log.Warnw("tcp endpoint dial failed", "id", c.ID(), "addr", addr, "error", err)
			c.markClosed()
			return
		}
		select {
		case <-c.closedCh:
			// Stop ran while we were dialing; don't hand a live socket to
			// goroutines nobody will reap.
			_ = conn.Close()
			return
		default:
		}
		c.setOpen(conn)
		go e.writer(c)
		go e.reader(c)
	}()
}

// writer drains c.outbound onto the socket until either a write fails or
// c.closedCh is signaled (by markClosed, from a read error, a failed write,
// or Endpoint.Stop tearing down the registry). It never ranges over
// outbound directly: outbound is never closed, only closedCh is, so a
// concurrent send can never race a close of the channel it sends on.
func (e *Endpoint) writer(c *Connection) {
	for {
		select {
		case <-c.closedCh:
			return
		default:
		}
		select {
		case <-c.closedCh:
			return
		case buf := <-c.outbound:
			conn := c.socket()
			if conn == nil {
				return
			}
			if _, err := conn.Write(buf); err != nil {
				e.log.Warnw("tcp endpoint write failed", "id", c.ID(), "error", err)
				c.markClosed()
				return
			}
		}
	}
}

func (e *Endpoint) reader(c *Connection) {
	buf := make([]byte, 4096)
	for {
		conn := c.socket()
		if conn == nil {
			return
		}
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			e.router.Process(dataunit.NewTCP(data, c.From(), c.To()))
		}
		if err != nil {
			if err != io.EOF {
				e.log.Warnw("tcp endpoint read failed", "id", c.ID(), "error", err)
			}
			c.markClosed()
			return
		}
	}
}

func (e *Endpoint) sweepLoop() {
	defer close(e.sweepDone)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.sweepStop:
			return
		case <-ticker.C:
			e.queue.Process(e.registry.Sweep)
		}
	}
}
