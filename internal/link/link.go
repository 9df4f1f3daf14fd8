// internal/link/link.go
package link

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Transport selects the physical layer of a link.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportRTU Transport = "rtu"
)

// TCPConfig addresses a Modbus TCP device.
type TCPConfig struct {
	Host string
	Port int
}

// RTUConfig addresses a Modbus RTU device on a serial line.
type RTUConfig struct {
	Device   string
	BaudRate int
	DataBits int
	Parity   string // "N", "E", "O"
	StopBits int
}

// Config is the construction-time description of one physical link.
// Exactly one of TCP/RTU is consulted, per Transport.
type Config struct {
	Transport Transport
	TCP       TCPConfig
	RTU       RTUConfig

	// SlaveID sub-addresses the device on a shared link (0-247).
	SlaveID byte

	Timeout time.Duration
}

// TransportError marks a link-level failure (socket, serial line, timeout).
// It forces a disconnect; a device exception response does not.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("link: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a link-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsDeviceError reports whether err is a well-formed device exception
// response. The link is still alive in that case.
func IsDeviceError(err error) bool {
	var me *modbus.ModbusError
	return errors.As(err, &me)
}

// wrap classifies an error from the underlying client. Device exception
// responses pass through untouched; everything else is transport-level.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDeviceError(err) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
