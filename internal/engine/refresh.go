// internal/engine/refresh.go
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/okrause/modbus-mapper/internal/codec"
	"github.com/okrause/modbus-mapper/internal/link"
	"github.com/okrause/modbus-mapper/internal/mapping"
	"github.com/okrause/modbus-mapper/internal/plan"
)

// Refresh executes one full poll cycle: ensure mapping, ensure connection,
// read every planned range, decode into a fresh snapshot.
//
// Failure isolation, smallest scope first: a bad decode nulls one entity;
// a failed batch read falls back to per-entity reads; a device exception
// nulls the affected entity without dropping the link. Only transport
// failures abort the cycle, drop the connection, and burn a retry attempt.
func (c *Coordinator) Refresh() (Snapshot, error) {
	start := time.Now()
	snap, err := c.refresh()
	c.met.ObserveCycle(time.Since(start), err)

	if err != nil {
		c.setAvailable(false)
		c.log.Warn("refresh failed", zap.Error(err))
		return nil, err
	}
	return snap, nil
}

func (c *Coordinator) refresh() (Snapshot, error) {
	_, ranges, err := c.ensureMapping()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var last error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if err := c.ensureConnected(); err != nil {
			last = err
			c.dropLocked()
			continue
		}

		snap, err := c.readAll(ranges)
		if err != nil {
			last = err
			c.dropLocked()
			continue
		}

		c.commit(snap)
		return snap, nil
	}

	return nil, fmt.Errorf("update failed after %d attempts: %w", connectAttempts, last)
}

func (c *Coordinator) commit(snap Snapshot) {
	c.stateMu.Lock()
	c.snap = snap
	c.available = true
	c.stateMu.Unlock()

	c.met.SetAvailable(true)
	for k, v := range snap {
		c.met.SetValue(k, v)
	}
}

// readAll fills a fresh snapshot from every planned range. Only transport
// errors propagate; everything else has been isolated below.
func (c *Coordinator) readAll(ranges []plan.Range) (Snapshot, error) {
	snap := Snapshot{}
	for _, r := range ranges {
		if err := c.readRange(r, snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (c *Coordinator) readRange(r plan.Range, snap Snapshot) error {
	if r.Type.Bit() {
		return c.readBitRange(r, snap)
	}
	return c.readRegisterRange(r, snap)
}

func (c *Coordinator) readRegisterRange(r plan.Range, snap Snapshot) error {
	regs, err := c.readRegisters(r.Type, r.Start, r.Count())
	if err != nil {
		if link.IsTransport(err) {
			return err
		}
		c.log.Warn("batch read failed, retrying entities individually",
			zap.String("type", string(r.Type)),
			zap.Uint16("start", r.Start),
			zap.Uint16("count", r.Count()),
			zap.Error(err))
		return c.fallbackRegisters(r, snap)
	}

	for _, e := range r.Entities {
		off := e.Read.Address - r.Start
		c.decodeInto(snap, e, regs[off:off+e.Read.Width()])
	}
	return nil
}

// fallbackRegisters retries a failed batch one entity at a time, so a
// single bad address nulls only its own entity.
func (c *Coordinator) fallbackRegisters(r plan.Range, snap Snapshot) error {
	for _, e := range r.Entities {
		regs, err := c.readRegisters(r.Type, e.Read.Address, e.Read.Width())
		if err != nil {
			if link.IsTransport(err) {
				return err
			}
			c.failEntity(snap, e.Key, err)
			continue
		}
		c.decodeInto(snap, e, regs)
	}
	return nil
}

func (c *Coordinator) readBitRange(r plan.Range, snap Snapshot) error {
	bits, err := c.readBits(r.Type, r.Start, r.Count())
	if err != nil {
		if link.IsTransport(err) {
			return err
		}
		c.log.Warn("batch bit read failed, retrying entities individually",
			zap.String("type", string(r.Type)),
			zap.Uint16("start", r.Start),
			zap.Uint16("count", r.Count()),
			zap.Error(err))
		return c.fallbackBits(r, snap)
	}

	for _, e := range r.Entities {
		snap[e.Key] = bits[e.Read.Address-r.Start]
	}
	return nil
}

func (c *Coordinator) fallbackBits(r plan.Range, snap Snapshot) error {
	for _, e := range r.Entities {
		bits, err := c.readBits(r.Type, e.Read.Address, 1)
		if err != nil {
			if link.IsTransport(err) {
				return err
			}
			c.failEntity(snap, e.Key, err)
			continue
		}
		snap[e.Key] = bits[0]
	}
	return nil
}

// decodeInto decodes one entity from its register slice. A decode failure
// nulls that entity only.
func (c *Coordinator) decodeInto(snap Snapshot, e mapping.Entity, regs []uint16) {
	if e.Read.Bit != nil {
		snap[e.Key] = codec.Bit(regs[0], *e.Read.Bit)
		return
	}

	v, err := codec.Decode(e.Read.DataType, regs, e.Read.WordOrder)
	if err != nil {
		c.failEntity(snap, e.Key, err)
		return
	}
	snap[e.Key] = codec.Scale(v, e.Read.Scale)
}

func (c *Coordinator) failEntity(snap Snapshot, key string, err error) {
	snap[key] = nil
	c.met.EntityReadFailure(key)
	c.log.Warn("entity read failed", zap.String("key", key), zap.Error(err))
}

// ---- PRIMITIVE DISPATCH ----

func (c *Coordinator) readRegisters(t mapping.RegType, addr, qty uint16) ([]uint16, error) {
	if t == mapping.RegInput {
		return c.drv.ReadInputRegisters(addr, qty)
	}
	return c.drv.ReadHoldingRegisters(addr, qty)
}

func (c *Coordinator) readBits(t mapping.RegType, addr, qty uint16) ([]bool, error) {
	if t == mapping.RegDiscrete {
		return c.drv.ReadDiscreteInputs(addr, qty)
	}
	return c.drv.ReadCoils(addr, qty)
}
