// internal/plan/plan.go
package plan

import (
	"sort"

	"github.com/okrause/modbus-mapper/internal/mapping"
)

// The planner turns entity read specs into the minimal set of contiguous
// batch-read ranges. Fewer round trips, bounded blast radius: one failed
// batch affects only the entities inside its range.

// Limits bounds the total span of one batched read. Bit reads are cheap
// per point, so their bound is much larger than the register bound.
// Both stay under the Modbus protocol ceilings (125 registers, 2000 bits).
type Limits struct {
	Registers uint16
	Bits      uint16
}

// DefaultLimits is used when the caller passes a zero Limits.
var DefaultLimits = Limits{Registers: 120, Bits: 2000}

// Range is one contiguous batch read and the entities it serves.
type Range struct {
	Type  mapping.RegType
	Start uint16
	End   uint16 // inclusive

	Entities []mapping.Entity
}

// Count returns the number of registers or bits the range covers.
func (r Range) Count() uint16 {
	return r.End - r.Start + 1
}

// kindOrder fixes the emission order so plans are deterministic.
var kindOrder = []mapping.RegType{
	mapping.RegHolding,
	mapping.RegInput,
	mapping.RegCoil,
	mapping.RegDiscrete,
}

// Build computes the batch-read plan for all readable entities.
// Per register kind: sort entity spans by start address (stable, so ties
// keep document order), then greedily merge adjacent or overlapping spans
// while the merged range stays within the kind's span limit.
func Build(entities []mapping.Entity, lim Limits) []Range {
	if lim.Registers == 0 {
		lim.Registers = DefaultLimits.Registers
	}
	if lim.Bits == 0 {
		lim.Bits = DefaultLimits.Bits
	}

	byKind := map[mapping.RegType][]mapping.Entity{}
	for _, e := range entities {
		if e.Read == nil {
			continue
		}
		byKind[e.Read.Type] = append(byKind[e.Read.Type], e)
	}

	var out []Range
	for _, kind := range kindOrder {
		limit := lim.Registers
		if kind.Bit() {
			limit = lim.Bits
		}
		out = append(out, buildKind(byKind[kind], kind, limit)...)
	}
	return out
}

func buildKind(entities []mapping.Entity, kind mapping.RegType, maxSpan uint16) []Range {
	if len(entities) == 0 {
		return nil
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Read.Address < entities[j].Read.Address
	})

	var ranges []Range
	for _, e := range entities {
		start := e.Read.Address
		end := start + e.Read.Width() - 1

		if len(ranges) > 0 {
			cur := &ranges[len(ranges)-1]
			merged := cur.End
			if end > merged {
				merged = end
			}
			if start <= cur.End+1 && merged-cur.Start+1 <= maxSpan {
				cur.End = merged
				cur.Entities = append(cur.Entities, e)
				continue
			}
		}

		ranges = append(ranges, Range{
			Type:     kind,
			Start:    start,
			End:      end,
			Entities: []mapping.Entity{e},
		})
	}
	return ranges
}
