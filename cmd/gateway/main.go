// Command gateway bridges an XBee radio on a serial port to TCP peers.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/app"
	"github.com/Arne-Sandberg/butler-xbee-gateway/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.StringP("config", "c", "", "path to YAML config file")
		device     = flag.StringP("device", "d", "", "serial device path (e.g. /dev/ttyUSB0)")
		baud       = flag.IntP("baud", "b", 0, "baud rate (overrides config file)")
		verbose    = flag.BoolP("verbose", "v", false, "enable debug logging")
	)
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateway: logger setup failed: %v\n", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck
	log := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Errorw("config load failed", "error", err)
		return 1
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	if err := cfg.Validate(); err != nil {
		log.Errorw("invalid configuration", "error", err)
		return 1
	}

	a := app.New(log, cfg)
	if err := a.Run(); err != nil {
		log.Errorw("run failed", "error", err)
		return 1
	}
	log.Info("EXIT")
	return 0
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
