// internal/mapping/types.go
package mapping

// Platform identifies the capability class of a mapped entity.
type Platform string

const (
	PlatformSensor       Platform = "sensor"
	PlatformBinarySensor Platform = "binary_sensor"
	PlatformNumber       Platform = "number"
	PlatformSwitch       Platform = "switch"
	PlatformSelect       Platform = "select"
	PlatformButton       Platform = "button"
)

// RegType identifies a Modbus register area.
type RegType string

const (
	RegHolding  RegType = "holding"
	RegInput    RegType = "input"
	RegCoil     RegType = "coil"
	RegDiscrete RegType = "discrete"
)

// Bit returns true for single-bit areas (coil, discrete).
func (t RegType) Bit() bool {
	return t == RegCoil || t == RegDiscrete
}

// DataType identifies how register words are decoded.
type DataType string

const (
	Uint16  DataType = "uint16"
	Int16   DataType = "int16"
	Uint32  DataType = "uint32"
	Int32   DataType = "int32"
	Float32 DataType = "float32"
)

// Width returns the number of 16-bit registers the type occupies.
func (t DataType) Width() uint16 {
	switch t {
	case Uint32, Int32, Float32:
		return 2
	default:
		return 1
	}
}

// WordOrder arranges the two registers of a 32-bit value.
type WordOrder string

const (
	WordOrderAB WordOrder = "AB" // high word first
	WordOrderBA WordOrder = "BA" // low word first
)

// DeviceInfo describes the physical device a mapping targets.
// Immutable once loaded.
type DeviceInfo struct {
	Name         string
	Manufacturer string
	Model        string
}

// Option is one (label, register value) pair of an enumerated entity.
type Option struct {
	Label string
	Value int
}

// ReadSpec describes where and how an entity's value is read.
type ReadSpec struct {
	Type      RegType
	Address   uint16
	DataType  DataType
	WordOrder WordOrder

	// Scale multiplies the decoded value. Zero means no scaling.
	Scale float64

	// Bit extracts a single flag from a 16-bit register, overriding
	// DataType decoding. Nil means whole-register decode.
	Bit *int
}

// Width returns the number of registers (or bits) one read consumes.
func (r *ReadSpec) Width() uint16 {
	if r.Type.Bit() || r.Bit != nil {
		return 1
	}
	return r.DataType.Width()
}

// WriteSpec describes where and how an entity's value is written.
// Only holding registers are writable; the validator enforces this.
type WriteSpec struct {
	Type     RegType
	Address  uint16
	DataType DataType

	// Scale divides the input value before writing (inverse of read
	// scaling). Zero means no scaling.
	Scale float64

	// Bit selects read-modify-write of a single flag.
	Bit *int
}

// Entity is one validated entity descriptor from a mapping document.
type Entity struct {
	Platform Platform
	Key      string
	Name     string

	Description string
	Unit        string
	Icon        string
	DeviceClass string
	StateClass  string

	Minimum *float64
	Maximum *float64
	Step    *float64

	Options    []Option
	PressValue int

	Read  *ReadSpec
	Write *WriteSpec
}

// Document is a fully loaded and validated mapping document.
type Document struct {
	Device   DeviceInfo
	Entities []Entity

	// Warnings are non-fatal validation notes (likely authoring
	// mistakes that do not prevent operation).
	Warnings []Problem
}

// EntityByKey returns the entity with the given key, if present.
func (d *Document) EntityByKey(key string) (*Entity, bool) {
	for i := range d.Entities {
		if d.Entities[i].Key == key {
			return &d.Entities[i], true
		}
	}
	return nil, false
}
