// internal/engine/write.go
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/okrause/modbus-mapper/internal/codec"
	"github.com/okrause/modbus-mapper/internal/mapping"
)

// ErrUnsupportedWrite rejects write sections targeting anything but
// holding registers. Coil-backed writes are a planned extension and must
// fail loudly rather than miswrite.
var ErrUnsupportedWrite = errors.New("engine: only holding-register writes are supported")

// WriteHolding writes a value to the entity's holding register. An entity
// without a write section is a silent no-op; the link is never touched.
// A write spec with a bit index becomes a read-modify-write of that single
// flag (value != 0 sets it); otherwise the value is inverse-scaled and
// written whole.
func (c *Coordinator) WriteHolding(key string, value float64) error {
	doc, _, err := c.ensureMapping()
	if err != nil {
		return err
	}
	ent, ok := doc.EntityByKey(key)
	if !ok {
		return fmt.Errorf("engine: unknown entity %q", key)
	}
	if ent.Write == nil {
		return nil
	}
	return c.write(ent.Write, value, key)
}

// WriteAddress writes a raw holding register without a mapped entity, for
// collaborators that address the device directly.
func (c *Coordinator) WriteAddress(addr uint16, dt mapping.DataType, scale float64, value float64) error {
	w := &mapping.WriteSpec{Type: mapping.RegHolding, Address: addr, DataType: dt, Scale: scale}
	return c.write(w, value, fmt.Sprintf("address %d", addr))
}

func (c *Coordinator) write(w *mapping.WriteSpec, value float64, what string) error {
	if w.Type != mapping.RegHolding {
		return fmt.Errorf("%w (got %q)", ErrUnsupportedWrite, w.Type)
	}

	c.mu.Lock()
	var last error
	ok := false
	for attempt := 0; attempt < connectAttempts && !ok; attempt++ {
		if err := c.ensureConnected(); err != nil {
			last = err
			c.dropLocked()
			continue
		}
		if err := c.writeOnce(w, value); err != nil {
			last = err
			c.dropLocked()
			continue
		}
		ok = true
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("engine: write %s failed: %w", what, last)
	}

	// The follow-up refresh is scheduled after the lock is released;
	// scheduling it while still holding mu would deadlock against
	// Refresh, which needs the same lock.
	go func() {
		if _, err := c.Refresh(); err != nil {
			c.log.Warn("post-write refresh failed", zap.Error(err))
		}
	}()

	return nil
}

// writeOnce performs a single write attempt. Caller holds mu.
//
// The bit path is read-modify-write: not atomic on the device, and it
// races with any other writer of the same register. Register-level bit
// flags accept that.
func (c *Coordinator) writeOnce(w *mapping.WriteSpec, value float64) error {
	if w.Bit != nil {
		regs, err := c.drv.ReadHoldingRegisters(w.Address, 1)
		if err != nil {
			return err
		}
		return c.drv.WriteRegister(w.Address, codec.SetBit(regs[0], *w.Bit, value != 0))
	}

	return c.drv.WriteRegister(w.Address, codec.EncodeRegister(value, w.Scale))
}
