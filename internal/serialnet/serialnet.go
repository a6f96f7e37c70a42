// Package serialnet is the SerialEndpoint: it owns the serial port, runs a
// dedicated read goroutine that feeds inbound bytes to the router as
// DataUnit::Serial, and exposes a non-blocking Write for outbound bytes
// enqueued on its own command worker.
package serialnet

import (
	"fmt"
	"io"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/dataunit"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/worker"
)

// Router is the narrow view of the router this endpoint needs: hand it a
// DataUnit and it takes care of dispatch.
type Router interface {
	Process(unit *dataunit.Unit)
}

// Port is the subset of go.bug.st/serial.Port this endpoint depends on,
// narrowed to ease testing with a fake.
type Port interface {
	io.ReadWriteCloser
}

// OpenPort opens dev at baud 8N1, the configuration XBee modules in API
// mode expect.
func OpenPort(dev string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	return serial.Open(dev, mode)
}

// Endpoint is the SerialEndpoint component.
type Endpoint struct {
	log    *zap.SugaredLogger
	queue  *worker.Queue
	router Router
	onStop func(reason string)

	device string
	baud   int
	open   func(dev string, baud int) (Port, error)

	port     Port
	readDone chan struct{}
}

// New constructs a SerialEndpoint bound to device at baud. onStop is
// invoked (from the read goroutine) when the port reports closed/errors;
// the composition root wires it to Application.Stop.
func New(log *zap.SugaredLogger, device string, baud int, router Router, onStop func(reason string)) *Endpoint {
	return &Endpoint{
		log:    log,
		queue:  worker.New(log.Named("queue")),
		router: router,
		onStop: onStop,
		device: device,
		baud:   baud,
		open:   OpenPort,
	}
}

// Start opens the serial port, starts the command worker, and begins the
// inbound read loop on its own goroutine.
func (e *Endpoint) Start() error {
	port, err := e.open(e.device, e.baud)
	if err != nil {
		return fmt.Errorf("serialnet: open %s: %w", e.device, err)
	}
	e.port = port
	e.queue.Start()
	e.readDone = make(chan struct{})
	go e.readLoop()
	return nil
}

// Stop closes the port (unblocking the read goroutine), waits for it to
// exit, then stops the command worker.
func (e *Endpoint) Stop() {
	if e.port != nil {
		_ = e.port.Close()
	}
	if e.readDone != nil {
		<-e.readDone
	}
	e.queue.Stop()
}

// Write enqueues buf for writing to the serial port; it returns
// immediately.
func (e *Endpoint) Write(buf []byte) {
	e.queue.Process(func() {
		if _, err := e.port.Write(buf); err != nil {
			e.log.Errorw("serial write failed", "error", err)
		}
	})
}

func (e *Endpoint) readLoop() {
	defer close(e.readDone)
	buf := make([]byte, 256)
	for {
		n, err := e.port.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			e.router.Process(dataunit.NewSerial(chunk))
		}
		if err != nil {
			if err != io.EOF {
				e.log.Warnw("serial read failed, closing", "error", err)
			}
			if e.onStop != nil {
				e.onStop(fmt.Sprintf("Serial: %v", err))
			}
			return
		}
	}
}
