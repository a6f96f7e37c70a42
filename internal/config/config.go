// Package config loads the gateway's configuration: the serial device and
// baud rate, and the optional list of TCP peers. The YAML file format is its
// job; CLI flags are parsed in main, which overrides fields of the loaded
// Config. Everything downstream just sees a Config value.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Peer is one configured TCP peer, addressed by host and port.
type Peer struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
}

// SerialConfig configures the local serial port the XBee radio is on.
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Config is the gateway's full configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	// Peers is parsed and validated but currently unwired: nothing in
	// app.New turns a Peer into an outbound tcpnet.Endpoint.Send call, the
	// same gap the original's TcpNet has (see DESIGN.md).
	Peers []Peer `yaml:"peers"`
}

// Default returns a Config with the XBee modules' usual default baud rate
// and no configured peers.
func Default() Config {
	c := Config{}
	c.Serial.Baud = 115200
	return c
}

// Load reads and parses a YAML config file at path. A missing file is not
// an error; Load returns Default() unchanged so CLI flags can supply
// everything instead.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable: a device path and a
// positive baud rate are mandatory (spec.md §6: "must supply serial device
// path, baud rate").
func (c Config) Validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("config: serial device is required")
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("config: serial baud rate must be positive, got %d", c.Serial.Baud)
	}
	for i, p := range c.Peers {
		if p.Host == "" {
			return fmt.Errorf("config: peers[%d]: host is required", i)
		}
		if p.Port == 0 {
			return fmt.Errorf("config: peers[%d]: port is required", i)
		}
	}
	return nil
}
