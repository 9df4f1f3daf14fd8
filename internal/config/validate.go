// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration; defaulting lives in Normalize().
func Validate(cfg *Config) error {
	m := &cfg.Mapper

	// ------------------------------------------------------------
	// TRANSPORT
	// ------------------------------------------------------------

	switch m.Transport {
	case "tcp":
		if m.TCP.Host == "" {
			return fmt.Errorf("config: tcp transport requires tcp.host")
		}
		if m.TCP.Port < 0 || m.TCP.Port > 65535 {
			return fmt.Errorf("config: tcp.port %d out of range", m.TCP.Port)
		}

	case "rtu":
		if m.RTU.Device == "" {
			return fmt.Errorf("config: rtu transport requires rtu.device")
		}
		if m.RTU.BaudRate < 0 {
			return fmt.Errorf("config: rtu.baud_rate must not be negative")
		}
		switch m.RTU.DataBits {
		case 0, 5, 6, 7, 8:
		default:
			return fmt.Errorf("config: rtu.data_bits %d not in {5,6,7,8}", m.RTU.DataBits)
		}
		switch m.RTU.Parity {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("config: rtu.parity %q not in {N,E,O}", m.RTU.Parity)
		}
		switch m.RTU.StopBits {
		case 0, 1, 2:
		default:
			return fmt.Errorf("config: rtu.stop_bits %d not in {1,2}", m.RTU.StopBits)
		}

	case "":
		return fmt.Errorf("config: transport is required")
	default:
		return fmt.Errorf("config: unsupported transport %q", m.Transport)
	}

	// ------------------------------------------------------------
	// DEVICE + POLLING
	// ------------------------------------------------------------

	if m.SlaveID < 0 || m.SlaveID > 247 {
		return fmt.Errorf("config: slave_id %d out of range 0..247", m.SlaveID)
	}
	if m.TimeoutMs < 0 {
		return fmt.Errorf("config: timeout_ms must be >= 0")
	}
	if m.PollIntervalS != 0 && (m.PollIntervalS < 1 || m.PollIntervalS > 3600) {
		return fmt.Errorf("config: poll_interval_s %d out of range 1..3600", m.PollIntervalS)
	}

	// ------------------------------------------------------------
	// MAPPING DOCUMENT
	// ------------------------------------------------------------

	if m.MappingFile == "" {
		return fmt.Errorf("config: mapping_file is required")
	}

	return nil
}
