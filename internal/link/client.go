// internal/link/client.go
package link

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/goburrow/modbus"
)

// Client drives one physical Modbus connection, TCP or serial RTU, chosen
// at construction. It exposes typed read/write primitives; the engine on
// top owns serialization, so the client itself carries no locking.
type Client struct {
	conn connector
	rw   modbus.Client
}

// connector is the lifecycle slice of goburrow's client handlers. Both the
// TCP and the RTU handler satisfy it; everything transport-specific
// (addressing, serial parameters, slave id) is fixed on the handler once,
// here, so callers never see the difference.
type connector interface {
	Connect() error
	Close() error
}

// New builds an unconnected client from a link configuration.
func New(cfg Config) (*Client, error) {
	switch cfg.Transport {
	case TransportTCP:
		if cfg.TCP.Host == "" {
			return nil, errors.New("link: tcp host required")
		}
		h := modbus.NewTCPClientHandler(net.JoinHostPort(cfg.TCP.Host, strconv.Itoa(cfg.TCP.Port)))
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.SlaveID
		return &Client{conn: h, rw: modbus.NewClient(h)}, nil

	case TransportRTU:
		if cfg.RTU.Device == "" {
			return nil, errors.New("link: rtu device required")
		}
		h := modbus.NewRTUClientHandler(cfg.RTU.Device)
		h.BaudRate = cfg.RTU.BaudRate
		h.DataBits = cfg.RTU.DataBits
		h.Parity = cfg.RTU.Parity
		h.StopBits = cfg.RTU.StopBits
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.SlaveID
		return &Client{conn: h, rw: modbus.NewClient(h)}, nil

	default:
		return nil, fmt.Errorf("link: unsupported transport %q", cfg.Transport)
	}
}

// Connect establishes the connection. Safe to retry.
func (c *Client) Connect() error {
	return wrap("connect", c.conn.Connect())
}

// Close tears the connection down, best-effort. Transport errors on close
// are swallowed.
func (c *Client) Close() {
	_ = c.conn.Close()
}

// ---- READ PRIMITIVES ----

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := c.rw.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, wrap("read holding", err)
	}
	return unpackRegisters(data, qty, "read holding")
}

func (c *Client) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	data, err := c.rw.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, wrap("read input", err)
	}
	return unpackRegisters(data, qty, "read input")
}

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	data, err := c.rw.ReadCoils(addr, qty)
	if err != nil {
		return nil, wrap("read coils", err)
	}
	return unpackBits(data, qty, "read coils")
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	data, err := c.rw.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, wrap("read discrete", err)
	}
	return unpackBits(data, qty, "read discrete")
}

// ---- WRITE PRIMITIVES ----

func (c *Client) WriteRegister(addr, value uint16) error {
	_, err := c.rw.WriteSingleRegister(addr, value)
	return wrap("write register", err)
}

func (c *Client) WriteCoil(addr uint16, on bool) error {
	var value uint16
	if on {
		value = 0xFF00
	}
	_, err := c.rw.WriteSingleCoil(addr, value)
	return wrap("write coil", err)
}

// ---- PAYLOAD UNPACKING ----

// unpackRegisters splits a big-endian register payload into words.
func unpackRegisters(data []byte, qty uint16, op string) ([]uint16, error) {
	if len(data) != int(qty)*2 {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("short payload: %d bytes for %d registers", len(data), qty)}
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}

// unpackBits expands a packed bit payload, LSB first within each byte.
func unpackBits(data []byte, qty uint16, op string) ([]bool, error) {
	if len(data) < (int(qty)+7)/8 {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("short payload: %d bytes for %d bits", len(data), qty)}
	}
	out := make([]bool, qty)
	for i := range out {
		out[i] = data[i/8]&(1<<uint(i%8)) != 0
	}
	return out, nil
}
