// internal/engine/engine.go
package engine

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/okrause/modbus-mapper/internal/mapping"
	"github.com/okrause/modbus-mapper/internal/metrics"
	"github.com/okrause/modbus-mapper/internal/plan"
)

// Driver abstracts the physical link the coordinator drives.
// The coordinator depends on primitives only; serialization, retry, and
// reconnect policy all live here, not in the driver.
type Driver interface {
	Connect() error
	Close()

	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)
	ReadCoils(addr, qty uint16) ([]bool, error)
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)

	WriteRegister(addr, value uint16) error
	WriteCoil(addr uint16, on bool) error
}

// Snapshot maps entity keys to decoded values (bool, int64, float64, or
// nil for an entity whose read or decode failed). Callers must treat it as
// read-only.
type Snapshot map[string]any

// Config is the coordinator's immutable runtime configuration.
type Config struct {
	// MappingPath locates the mapping document. It is loaded lazily on
	// the first cycle and never reloaded.
	MappingPath string

	// Interval is the fixed poll period used by Run.
	Interval time.Duration

	// Limits bounds batched reads. Zero fields take plan defaults.
	Limits plan.Limits
}

// connectAttempts is the retry budget for one refresh or write: each
// attempt is separated by an explicit disconnect.
const connectAttempts = 2

// Coordinator owns one physical link and one mapping document. All link
// IO is serialized through a single lock; reads never observe a value
// mid-write and writes never interleave with a cycle's range sequence.
type Coordinator struct {
	cfg Config
	drv Driver
	log *zap.Logger
	met *metrics.Metrics

	// mu serializes every link operation. Held for a whole poll cycle
	// or a whole write-retry sequence.
	mu        sync.Mutex
	connected bool

	// stateMu guards what collaborators observe between cycles.
	stateMu   sync.RWMutex
	doc       *mapping.Document
	ranges    []plan.Range
	snap      Snapshot
	available bool
}

// New creates a coordinator with immutable config. The mapping document is
// not touched yet; it loads on first use.
func New(cfg Config, drv Driver, log *zap.Logger, met *metrics.Metrics) (*Coordinator, error) {
	if cfg.MappingPath == "" {
		return nil, errors.New("engine: mapping path required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("engine: interval must be > 0")
	}
	if drv == nil {
		return nil, errors.New("engine: driver required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{cfg: cfg, drv: drv, log: log, met: met}, nil
}

// ensureMapping loads and plans the mapping document once.
// Load is blocking file I/O; it runs on the calling goroutine, so callers
// servicing a latency-sensitive loop must call through a worker.
func (c *Coordinator) ensureMapping() (*mapping.Document, []plan.Range, error) {
	c.stateMu.RLock()
	doc, ranges := c.doc, c.ranges
	c.stateMu.RUnlock()
	if doc != nil {
		return doc, ranges, nil
	}

	loaded, err := mapping.Load(c.cfg.MappingPath)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range loaded.Warnings {
		c.log.Warn("mapping warning", zap.String("problem", w.String()))
	}
	planned := plan.Build(loaded.Entities, c.cfg.Limits)

	c.stateMu.Lock()
	if c.doc == nil {
		c.doc = loaded
		c.ranges = planned
	}
	doc, ranges = c.doc, c.ranges
	c.stateMu.Unlock()

	c.log.Info("mapping loaded",
		zap.String("device", doc.Device.Name),
		zap.Int("entities", len(doc.Entities)),
		zap.Int("ranges", len(ranges)))

	return doc, ranges, nil
}

// ensureConnected lazily establishes the link. Caller holds mu.
func (c *Coordinator) ensureConnected() error {
	if c.connected {
		return nil
	}
	if err := c.drv.Connect(); err != nil {
		return err
	}
	c.connected = true
	return nil
}

// dropLocked tears the link down so the next attempt reconnects.
// Caller holds mu.
func (c *Coordinator) dropLocked() {
	c.drv.Close()
	c.connected = false
}

func (c *Coordinator) setAvailable(ok bool) {
	c.stateMu.Lock()
	c.available = ok
	c.stateMu.Unlock()
	c.met.SetAvailable(ok)
}

// Available reflects the outcome of the last refresh. Isolated per-entity
// failures leave it true; only a whole-cycle failure clears it.
func (c *Coordinator) Available() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.available
}

// Data returns the last good snapshot. Keys whose most recent read failed
// carry nil.
func (c *Coordinator) Data() Snapshot {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.snap
}

// DeviceInfo returns the mapped device metadata. ok is false until the
// mapping has loaded.
func (c *Coordinator) DeviceInfo() (mapping.DeviceInfo, bool) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.doc == nil {
		return mapping.DeviceInfo{}, false
	}
	return c.doc.Device, true
}

// Entities lists the mapped entity descriptors in document order, loading
// the mapping if needed.
func (c *Coordinator) Entities() ([]mapping.Entity, error) {
	doc, _, err := c.ensureMapping()
	if err != nil {
		return nil, err
	}
	return doc.Entities, nil
}

// Close releases the link. Safe to call more than once.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		c.dropLocked()
	}
}
