// internal/link/link_test.go
package link

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goburrow/modbus"
)

func TestUnpackRegisters(t *testing.T) {
	got, err := unpackRegisters([]byte{0x12, 0x34, 0xAB, 0xCD}, 2, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []uint16{0x1234, 0xABCD}) {
		t.Fatalf("registers = %#v", got)
	}

	if _, err := unpackRegisters([]byte{0x12}, 1, "t"); err == nil {
		t.Fatal("short payload must fail")
	}
}

func TestUnpackBits(t *testing.T) {
	// 0b0000_0101: bit 0 and bit 2 set, LSB first.
	got, err := unpackBits([]byte{0x05}, 4, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []bool{true, false, true, false}) {
		t.Fatalf("bits = %v", got)
	}

	// bits spanning a byte boundary
	got, err = unpackBits([]byte{0x00, 0x01}, 9, "t")
	if err != nil {
		t.Fatal(err)
	}
	if !got[8] || got[7] {
		t.Fatalf("bits = %v", got)
	}

	if _, err := unpackBits([]byte{0x00}, 9, "t"); err == nil {
		t.Fatal("short payload must fail")
	}
}

func TestWrap_Classification(t *testing.T) {
	if wrap("op", nil) != nil {
		t.Fatal("nil must stay nil")
	}

	devErr := &modbus.ModbusError{FunctionCode: 0x83, ExceptionCode: 2}
	if got := wrap("op", devErr); !IsDeviceError(got) || IsTransport(got) {
		t.Fatalf("device exception misclassified: %v", got)
	}

	trErr := wrap("op", errors.New("connection reset"))
	if !IsTransport(trErr) || IsDeviceError(trErr) {
		t.Fatalf("transport error misclassified: %v", trErr)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Transport: TransportTCP}); err == nil {
		t.Fatal("tcp without host must fail")
	}
	if _, err := New(Config{Transport: TransportRTU}); err == nil {
		t.Fatal("rtu without device must fail")
	}
	if _, err := New(Config{Transport: "udp"}); err == nil {
		t.Fatal("unknown transport must fail")
	}

	c, err := New(Config{
		Transport: TransportTCP,
		TCP:       TCPConfig{Host: "127.0.0.1", Port: 502},
		SlaveID:   3,
	})
	if err != nil || c == nil {
		t.Fatalf("New err=%v", err)
	}
}
