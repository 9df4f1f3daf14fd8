// internal/codec/codec_test.go
package codec

import (
	"math"
	"testing"

	"github.com/okrause/modbus-mapper/internal/mapping"
)

func decode(t *testing.T, dt mapping.DataType, regs []uint16, order mapping.WordOrder) any {
	t.Helper()
	v, err := Decode(dt, regs, order)
	if err != nil {
		t.Fatalf("Decode(%s, %v, %s) err=%v", dt, regs, order, err)
	}
	return v
}

func TestDecode_Uint16(t *testing.T) {
	for _, r := range []uint16{0, 1, 0x7FFF, 0x8000, 0xFFFF} {
		if v := decode(t, mapping.Uint16, []uint16{r}, mapping.WordOrderAB); v != int64(r) {
			t.Fatalf("uint16 %#x = %v", r, v)
		}
	}
}

func TestDecode_Int16(t *testing.T) {
	cases := map[uint16]int64{
		0x0000: 0,
		0x7FFF: 32767,
		0x8000: -32768,
		0xFFFF: -1,
		0xFFFB: -5,
	}
	for r, want := range cases {
		if v := decode(t, mapping.Int16, []uint16{r}, mapping.WordOrderAB); v != want {
			t.Fatalf("int16 %#x = %v, want %d", r, v, want)
		}
	}
}

func TestDecode_32BitTypes(t *testing.T) {
	if v := decode(t, mapping.Uint32, []uint16{0x0001, 0x0002}, mapping.WordOrderAB); v != int64(0x10002) {
		t.Fatalf("uint32 AB = %v", v)
	}
	if v := decode(t, mapping.Int32, []uint16{0xFFFF, 0xFFFF}, mapping.WordOrderAB); v != int64(-1) {
		t.Fatalf("int32 = %v", v)
	}
	if v := decode(t, mapping.Uint32, []uint16{0xFFFF, 0xFFFF}, mapping.WordOrderAB); v != int64(0xFFFFFFFF) {
		t.Fatalf("uint32 max = %v", v)
	}
}

func TestDecode_Float32(t *testing.T) {
	bits := math.Float32bits(21.5)
	hi := uint16(bits >> 16)
	lo := uint16(bits)

	if v := decode(t, mapping.Float32, []uint16{hi, lo}, mapping.WordOrderAB); v != float64(float32(21.5)) {
		t.Fatalf("float32 AB = %v", v)
	}
	if v := decode(t, mapping.Float32, []uint16{lo, hi}, mapping.WordOrderBA); v != float64(float32(21.5)) {
		t.Fatalf("float32 BA = %v", v)
	}
}

func TestDecode_Float32NaNPayload(t *testing.T) {
	v := decode(t, mapping.Float32, []uint16{0xFFFF, 0}, mapping.WordOrderAB)
	if f, ok := v.(float64); !ok || !math.IsNaN(f) {
		t.Fatalf("float32 NaN payload = %v", v)
	}
}

// sameValue compares decoded values bit-for-bit so NaN floats
// (e.g. float32 from 0xFFFF0000) compare equal to themselves.
func sameValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return math.Float64bits(af) == math.Float64bits(bf)
	}
	return a == b
}

// Word-order swap is a pure permutation: BA(hi,lo) == AB(lo,hi).
func TestDecode_WordOrderSwap(t *testing.T) {
	pairs := [][2]uint16{{0x1234, 0x5678}, {0, 0xFFFF}, {0x8000, 0x0001}}
	for _, dt := range []mapping.DataType{mapping.Uint32, mapping.Int32, mapping.Float32} {
		for _, p := range pairs {
			ba := decode(t, dt, []uint16{p[0], p[1]}, mapping.WordOrderBA)
			ab := decode(t, dt, []uint16{p[1], p[0]}, mapping.WordOrderAB)
			if !sameValue(ba, ab) {
				t.Fatalf("%s: BA(%v) = %v, AB(swapped) = %v", dt, p, ba, ab)
			}
		}
	}
}

func TestDecode_RegisterCountMismatch(t *testing.T) {
	if _, err := Decode(mapping.Uint32, []uint16{1}, mapping.WordOrderAB); err == nil {
		t.Fatal("uint32 with 1 register must fail")
	}
	if _, err := Decode(mapping.Uint16, []uint16{1, 2}, mapping.WordOrderAB); err == nil {
		t.Fatal("uint16 with 2 registers must fail")
	}
}

func TestBit(t *testing.T) {
	if !Bit(0b1000, 3) || Bit(0b1000, 2) || Bit(0b1000, 4) {
		t.Fatal("bit extraction wrong")
	}
	if !Bit(0x8000, 15) || Bit(0x7FFF, 15) {
		t.Fatal("bit 15 wrong")
	}
}

func TestSetBit(t *testing.T) {
	if got := SetBit(0b0000, 3, true); got != 0b1000 {
		t.Fatalf("set bit 3 of 0 = %#b", got)
	}
	if got := SetBit(0b1000, 3, false); got != 0 {
		t.Fatalf("clear bit 3 of 0b1000 = %#b", got)
	}
	// other bits unaffected
	if got := SetBit(0xABCD, 1, true); got != 0xABCD|0x0002 {
		t.Fatalf("set bit 1 = %#x", got)
	}
	if got := SetBit(0xFFFF, 0, false); got != 0xFFFE {
		t.Fatalf("clear bit 0 = %#x", got)
	}
}

func TestScale(t *testing.T) {
	if v := Scale(int64(215), 0.1); v != 21.5 {
		t.Fatalf("scaled = %v", v)
	}
	if v := Scale(int64(215), 0); v != int64(215) {
		t.Fatalf("unscaled = %v", v)
	}
	if v := Scale(1.5, 2.0); v != 3.0 {
		t.Fatalf("float scaled = %v", v)
	}
}

func TestEncodeRegister(t *testing.T) {
	if got := EncodeRegister(21.5, 0.5); got != 43 {
		t.Fatalf("encode inverse scale = %d", got)
	}
	if got := EncodeRegister(42, 0); got != 42 {
		t.Fatalf("encode plain = %d", got)
	}
	// truncation, not rounding
	if got := EncodeRegister(12.9, 0); got != 12 {
		t.Fatalf("encode truncation = %d", got)
	}
	// negative values keep their two's-complement pattern
	if got := EncodeRegister(-5, 0); got != 0xFFFB {
		t.Fatalf("encode negative = %#x", got)
	}
}
