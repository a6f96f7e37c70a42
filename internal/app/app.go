// Package app is the composition root and lifecycle controller: it builds
// the router and the three endpoints, wires their cross-references, and
// drives start/stop in the fixed order the design requires.
package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/config"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/router"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/serialnet"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/tcpnet"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/worker"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xbeenet"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/xgwerr"
)

// Application owns every long-lived component and the start/stop ordering
// between them. Only one Application is meaningful per process; main
// constructs exactly one and calls Run.
type Application struct {
	log *zap.SugaredLogger
	cfg config.Config

	mainQueue *worker.Queue
	signals   *signalListener
	serial    *serialnet.Endpoint
	xbee      *xbeenet.Endpoint
	tcp       *tcpnet.Endpoint
	router    *router.Router

	stopCh   chan string
	stopOnce sync.Once
}

// New builds the composition root: Router first (so endpoints can be given
// a handle to it), then Serial and XBee (each wired to Router), with the
// Router wired back to both once they exist — breaking the Router/endpoint
// construction cycle the same way the original's composition root does,
// one level removed from a singleton.
func New(log *zap.SugaredLogger, cfg config.Config) *Application {
	a := &Application{
		log:       log,
		cfg:       cfg,
		mainQueue: worker.New(log.Named("main")),
		stopCh:    make(chan string, 1),
	}
	a.signals = newSignalListener(log.Named("signal"), a.Stop)
	a.router = router.New(log.Named("router"))
	a.xbee = xbeenet.New(log.Named("xbee"), a.router)
	a.tcp = tcpnet.New(log.Named("tcp"), a.router)
	a.serial = serialnet.New(log.Named("serial"), cfg.Serial.Device, cfg.Serial.Baud, a.router, a.onSerialClosed)
	a.router.SetEndpoints(a.serial, a.xbee)
	return a
}

// onSerialClosed is CommandSerialClose from the original: the serial port
// closing does not stop the serial endpoint itself, it posts an
// ApplicationStop onto the main queue.
func (a *Application) onSerialClosed(cause string) {
	a.Stop(cause)
}

// Run starts every component in order (main queue, signals, serial, xbee,
// tcp, router), blocks until Stop is called, then stops everything in
// reverse order. It returns a non-nil error only on startup failure; a
// clean shutdown always returns nil.
func (a *Application) Run() error {
	a.log.Info("START")
	a.mainQueue.Start()
	a.signals.Start()

	started := []func(){a.signals.Stop}
	unwind := func() {
		for i := len(started) - 1; i >= 0; i-- {
			started[i]()
		}
		a.mainQueue.Stop()
	}

	if err := a.serial.Start(); err != nil {
		a.log.Errorw("startup failed", "component", "serial", "error", err)
		unwind()
		return fmt.Errorf("%w: serial: %v", xgwerr.ErrStartup, err)
	}
	started = append(started, a.serial.Stop)

	a.xbee.Start()
	started = append(started, a.xbee.Stop)

	a.tcp.Start()
	started = append(started, a.tcp.Stop)

	a.router.Start()
	started = append(started, a.router.Stop)

	a.log.Info("PROCESSING")
	reason := <-a.stopCh
	a.log.Infow("FINISHING", "reason", reason)

	for i := len(started) - 1; i >= 0; i-- {
		started[i]()
	}
	a.mainQueue.Stop()
	return nil
}

// Stop posts the shutdown latch with reason. It is safe to call from any
// goroutine (signal handler, serial read loop) and safe to call more than
// once; only the first call's reason is observed.
func (a *Application) Stop(reason string) {
	a.mainQueue.Process(func() {
		a.stopOnce.Do(func() {
			a.stopCh <- reason
		})
	})
}
