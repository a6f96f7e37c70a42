package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// signalListener is the SignalProcessor component: it owns a goroutine
// waiting on SIGINT/SIGTERM and turns either into an ApplicationStop via
// onSignal, the way the original's boost::asio signal_set wait loop does.
type signalListener struct {
	log      *zap.SugaredLogger
	onSignal func(reason string)

	sigCh chan os.Signal
	done  chan struct{}
}

func newSignalListener(log *zap.SugaredLogger, onSignal func(reason string)) *signalListener {
	return &signalListener{
		log:      log,
		onSignal: onSignal,
	}
}

func (s *signalListener) Start() {
	s.sigCh = make(chan os.Signal, 1)
	s.done = make(chan struct{})
	signal.Notify(s.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go s.loop()
}

func (s *signalListener) Stop() {
	signal.Stop(s.sigCh)
	close(s.sigCh)
	<-s.done
}

func (s *signalListener) loop() {
	defer close(s.done)
	for sig := range s.sigCh {
		s.log.Infow("received signal, stopping", "signal", sig)
		s.onSignal(fmt.Sprintf("signal: %s", sig))
	}
}
