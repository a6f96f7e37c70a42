package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Baud != Default().Serial.Baud {
		t.Errorf("Baud = %d, want default %d", cfg.Serial.Baud, Default().Serial.Baud)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Device != "" {
		t.Errorf("Device = %q, want empty", cfg.Serial.Device)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	yaml := `
serial:
  device: /dev/ttyUSB0
  baud: 57600
peers:
  - host: 10.0.0.5
    port: 9000
  - host: 10.0.0.6
    port: 9001
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyUSB0" {
		t.Errorf("Device = %q, want /dev/ttyUSB0", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 57600 {
		t.Errorf("Baud = %d, want 57600", cfg.Serial.Baud)
	}
	if len(cfg.Peers) != 2 {
		t.Fatalf("len(Peers) = %d, want 2", len(cfg.Peers))
	}
	if cfg.Peers[0].Host != "10.0.0.5" || cfg.Peers[0].Port != 9000 {
		t.Errorf("Peers[0] = %+v, want {10.0.0.5 9000}", cfg.Peers[0])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Serial: SerialConfig{Device: "/dev/ttyUSB0", Baud: 9600}}, false},
		{"missing device", Config{Serial: SerialConfig{Baud: 9600}}, true},
		{"zero baud", Config{Serial: SerialConfig{Device: "/dev/ttyUSB0"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRejectsIncompletePeer(t *testing.T) {
	cfg := Default()
	cfg.Serial.Device = "/dev/ttyUSB0"
	cfg.Peers = []Peer{{Host: "", Port: 9000}}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for peer with empty host")
	}
}
