// Package xbeenet is the XBeeEndpoint: it decodes inbound serial bytes into
// XBee frames and hands receive-packet payloads to the router, and encodes
// outbound payloads into escaped ZB_TX_REQ frames for the serial port.
package xbeenet

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/dataunit"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/netaddr"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/worker"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xbeeframe"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// Router is the narrow view of the router this endpoint needs.
type Router interface {
	Process(unit *dataunit.Unit)
}

// Endpoint is the XBeeEndpoint component.
type Endpoint struct {
	log     *zap.SugaredLogger
	queue   *worker.Queue
	decoder *xbeeframe.Decoder
	router  Router
}

// New constructs an XBeeEndpoint.
func New(log *zap.SugaredLogger, router Router) *Endpoint {
	return &Endpoint{
		log:     log,
		queue:   worker.New(log.Named("queue")),
		decoder: xbeeframe.NewDecoder(log.Named("decoder")),
		router:  router,
	}
}

// Start starts the command worker.
func (e *Endpoint) Start() { e.queue.Start() }

// Stop stops the command worker.
func (e *Endpoint) Stop() { e.queue.Stop() }

// From enqueues inbound raw serial bytes for decoding. Non-blocking.
func (e *Endpoint) From(data []byte) {
	e.queue.Process(func() {
		e.decoder.Push(data, e.onFrame)
	})
}

// To enqueues an outbound payload for encoding into a ZB_TX_REQ frame
// addressed to to. to.Origin() must be OriginXBeeNet; violating that is a
// programmer error, logged and dropped rather than propagated (fire and
// forget per the endpoint's contract).
func (e *Endpoint) To(from, to netaddr.Address, payload []byte) {
	e.queue.Process(func() {
		e.onTo(from, to, payload)
	})
}

func (e *Endpoint) onFrame(frameBuf []byte) {
	frame, err := xbeeframe.Parse(frameBuf)
	if err != nil {
		e.log.Warnw("xbee frame parser", "error", err)
		return
	}
	if frame.Rx == nil {
		e.log.Debugw("xbee frame ignored, not a receive packet", "api_id", fmt.Sprintf("0x%02x", frame.APIID))
		return
	}
	src := netaddr.NewXBeeNet(frame.Rx.Addr64Src)
	e.router.Process(dataunit.NewXBee(frame.Rx.Data, src))
}

func (e *Endpoint) onTo(from, to netaddr.Address, payload []byte) {
	if to.Origin() != netaddr.OriginXBeeNet {
		e.log.Errorw("xbee endpoint To() precondition violated", "error", xgwerr.ErrPrecondition, "to", to)
		return
	}
	buf, err := xbeeframe.BuildZBTxReq(
		xbeeframe.FrameIDNoResponse,
		to.XBee64(),
		xbeeframe.Addr16Unknown,
		xbeeframe.RadiusMax,
		0,
		payload,
	)
	if err != nil {
		e.log.Errorw("xbee frame encoder", "error", err)
		return
	}
	escaped := xbeeframe.Escape(buf)
	e.router.Process(dataunit.NewXBeeEncoder(escaped, to))
}
