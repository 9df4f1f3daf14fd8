// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mapper MapperConfig `yaml:"mapper"`
}

// ---- MAPPER ----

type MapperConfig struct {
	// Transport selects the physical layer: "tcp" or "rtu".
	Transport string `yaml:"transport"`

	TCP TCPConfig `yaml:"tcp"`
	RTU RTUConfig `yaml:"rtu"`

	SlaveID       int `yaml:"slave_id"`
	TimeoutMs     int `yaml:"timeout_ms"`
	PollIntervalS int `yaml:"poll_interval_s"`

	// Mapping document location.
	MappingDir  string `yaml:"mapping_dir"`
	MappingFile string `yaml:"mapping_file"`

	// MetricsListen enables the Prometheus endpoint when non-empty,
	// e.g. ":9550".
	MetricsListen string `yaml:"metrics_listen"`
}

// ---- TCP TRANSPORT ----

type TCPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ---- RTU TRANSPORT ----

type RTUConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`
}

// Load reads and decodes a config file. Validation is separate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}
