// Package router implements the Router state machine: it consumes
// DataUnits on its own command worker and dispatches each to the correct
// peer endpoint by kind, the way Router::onProcess does in the original.
package router

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/dataunit"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/netaddr"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/worker"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// SerialWriter is the narrow view of SerialEndpoint the router needs.
type SerialWriter interface {
	Write(buf []byte)
}

// XBeeFromer is the narrow view of XBeeEndpoint the router needs.
type XBeeFromer interface {
	From(data []byte)
}

// Router is the Router component. SetEndpoints must be called once, after
// construction but before Start, to break the Router/endpoint
// initialization cycle (the composition root wires them in after both
// sides exist).
type Router struct {
	log   *zap.SugaredLogger
	queue *worker.Queue

	serial SerialWriter
	xbee   XBeeFromer
}

// New constructs a Router with no endpoints wired yet.
func New(log *zap.SugaredLogger) *Router {
	return &Router{
		log:   log,
		queue: worker.New(log.Named("queue")),
	}
}

// SetEndpoints wires the peer endpoints the router dispatches to.
func (r *Router) SetEndpoints(serial SerialWriter, xbee XBeeFromer) {
	r.serial = serial
	r.xbee = xbee
}

// Start starts the command worker.
func (r *Router) Start() { r.queue.Start() }

// Stop stops the command worker.
func (r *Router) Stop() { r.queue.Stop() }

// Process enqueues unit for dispatch on the router's worker. Non-blocking.
func (r *Router) Process(unit *dataunit.Unit) {
	r.queue.Process(func() {
		r.dispatch(unit)
	})
}

// dispatch is the router's dispatch table, keyed on the unit's kind.
// Errors never escape this boundary: they are logged and the unit dropped.
func (r *Router) dispatch(unit *dataunit.Unit) {
	if err := r.dispatchOrError(unit); err != nil {
		r.log.Errorw("routing error", "kind", unit.Kind(), "error", err)
	}
}

func (r *Router) dispatchOrError(unit *dataunit.Unit) error {
	switch unit.Kind() {
	case dataunit.Serial:
		r.xbee.From(unit.PopData())
		return nil
	case dataunit.XBeeEncoder:
		dst, ok := unit.Destination()
		if !ok || dst.Origin() != netaddr.OriginXBeeNet {
			return fmt.Errorf("%w: XBEE_ENCODER unit without an XBEE_NET destination", xgwerr.ErrWrongUnitType)
		}
		r.serial.Write(unit.PopData())
		return nil
	case dataunit.XBee:
		// XBEE_NET: reserved for future use, silently ignored.
		return nil
	case dataunit.TCP:
		return fmt.Errorf("%w: origin TCP", xgwerr.ErrNotImplemented)
	default:
		return fmt.Errorf("%w: origin %v", xgwerr.ErrNotImplemented, unit.Kind())
	}
}
