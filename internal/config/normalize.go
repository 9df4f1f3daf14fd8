// internal/config/normalize.go
package config

// Normalize applies post-validation defaulting.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	m := &cfg.Mapper

	if m.Transport == "tcp" && m.TCP.Port == 0 {
		m.TCP.Port = 502
	}

	if m.Transport == "rtu" {
		if m.RTU.BaudRate == 0 {
			m.RTU.BaudRate = 9600
		}
		if m.RTU.DataBits == 0 {
			m.RTU.DataBits = 8
		}
		if m.RTU.Parity == "" {
			m.RTU.Parity = "N"
		}
		if m.RTU.StopBits == 0 {
			m.RTU.StopBits = 1
		}
	}

	if m.TimeoutMs == 0 {
		m.TimeoutMs = 5000
	}
	if m.PollIntervalS == 0 {
		m.PollIntervalS = 60
	}
	if m.MappingDir == "" {
		m.MappingDir = "mappings"
	}
}
