// internal/codec/codec.go
package codec

import (
	"fmt"
	"math"

	"github.com/okrause/modbus-mapper/internal/mapping"
)

// Pure register conversion. No IO. No state.

// DecodeError marks a raw value that could not be converted. The caller
// isolates it to the affected entity; it never aborts a poll cycle.
type DecodeError struct {
	DataType mapping.DataType
	Msg      string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.DataType, e.Msg)
}

// Decode converts raw register words into a typed value.
// 16-bit types take one register, 32-bit types exactly two. Word order BA
// swaps the two registers before combining; it is a no-op for 16-bit types.
// Integer types yield int64, float32 yields float64.
func Decode(dt mapping.DataType, regs []uint16, order mapping.WordOrder) (any, error) {
	if want := int(dt.Width()); len(regs) != want {
		return nil, &DecodeError{DataType: dt, Msg: fmt.Sprintf("need %d registers, got %d", want, len(regs))}
	}

	switch dt {
	case mapping.Uint16:
		return int64(regs[0]), nil
	case mapping.Int16:
		return int64(int16(regs[0])), nil
	}

	hi, lo := regs[0], regs[1]
	if order == mapping.WordOrderBA {
		hi, lo = lo, hi
	}
	raw := uint32(hi)<<16 | uint32(lo)

	switch dt {
	case mapping.Uint32:
		return int64(raw), nil
	case mapping.Int32:
		return int64(int32(raw)), nil
	case mapping.Float32:
		return float64(math.Float32frombits(raw)), nil
	}

	return nil, &DecodeError{DataType: dt, Msg: "unknown data type"}
}

// Bit extracts a single flag from a 16-bit register.
func Bit(reg uint16, bit int) bool {
	return (reg>>uint(bit))&1 == 1
}

// SetBit returns reg with the given bit set or cleared. All other bits are
// unaffected.
func SetBit(reg uint16, bit int, on bool) uint16 {
	if on {
		return reg | 1<<uint(bit)
	}
	return reg &^ (1 << uint(bit))
}

// Scale applies read-direction scaling: value × scale. A zero or absent
// scale leaves the value untouched.
func Scale(v any, scale float64) any {
	if scale == 0 {
		return v
	}
	switch x := v.(type) {
	case int64:
		return float64(x) * scale
	case float64:
		return x * scale
	}
	return v
}

// EncodeRegister prepares a value for a plain (non-bit) holding write:
// inverse scaling, then truncation to an integer register value. Negative
// values wrap to their two's-complement 16-bit pattern.
func EncodeRegister(value float64, scale float64) uint16 {
	if scale != 0 {
		value /= scale
	}
	return uint16(int64(value))
}
