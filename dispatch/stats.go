package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Update statistics and table description
// ---------------------------------------------------------------------------

// UpdateStats summarizes one update pass. PassID is freshly drawn per
// pass so offline tooling can correlate snapshots with runs.
type UpdateStats struct {
	PassID   uuid.UUID
	When     time.Time
	Duration time.Duration

	Classes         int
	ConcreteClasses int
	Methods         int
	Specs           int

	GmtblWords int
	GdtblWords int

	HashAttempts int
	HashSize     int
}

// LastUpdate returns the statistics of the most recent successful update
// pass. The zero value is returned before the first one.
func (rt *Runtime) LastUpdate() UpdateStats {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.stats
}

// CellKind classifies one dispatch cell.
type CellKind uint8

const (
	// CellSpec: the cell holds a specialization body.
	CellSpec CellKind = iota
	// CellNotImplemented: no specialization applies.
	CellNotImplemented
	// CellAmbiguous: several incomparable specializations apply.
	CellAmbiguous
)

// String implements the Stringer interface.
func (k CellKind) String() string {
	switch k {
	case CellSpec:
		return "spec"
	case CellNotImplemented:
		return "not-implemented"
	case CellAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// ClassView describes one participating class after an update.
type ClassView struct {
	Name      string
	Bases     []string
	Interface bool

	// FirstSlot and SlotLimit bound the class's used slot range;
	// MtblWords is SlotLimit-FirstSlot for concrete classes, 0 for
	// interfaces and untouched classes.
	FirstSlot int
	SlotLimit int
	MtblWords int
}

// MethodView describes one method's computed layout after an update.
type MethodView struct {
	Name    string
	Arity   int
	Specs   int
	UseHash bool

	// VP names the declared virtual-parameter classes, in order.
	VP []string

	Slots      []int
	Strides    []int
	GroupSizes []int

	// Cells lists the resolved kind of every dispatch cell: the flat
	// tensor for multi-virtual methods, one entry per dimension-0 group
	// for single-virtual ones.
	Cells []CellKind
}

// Description is a structural snapshot of the tables built by one update
// pass, detailed enough to audit slot ranges, group compression, and
// cell outcomes offline.
type Description struct {
	Stats   UpdateStats
	Classes []ClassView
	Methods []MethodView

	HashMult  uint64
	HashShift uint
	HashSize  int
}

// Describe returns the description captured by the last successful
// update, or nil before the first one.
func (rt *Runtime) Describe() *Description {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.desc
}

// describe captures the pass's working state before it is discarded.
func (u *updater) describe() *Description {
	d := &Description{
		Stats:     u.stats,
		HashMult:  u.hash.mult,
		HashShift: u.hash.shift,
		HashSize:  len(u.hash.table),
	}
	for _, c := range u.layered {
		v := ClassView{
			Name:      c.desc.Name,
			Interface: c.desc.Interface,
		}
		for _, b := range c.directBases {
			v.Bases = append(v.Bases, b.desc.Name)
		}
		if c.firstUsed >= 0 {
			v.FirstSlot = c.firstUsed
			v.SlotLimit = c.nextSlot
			if !c.desc.Interface {
				v.MtblWords = c.nextSlot - c.firstUsed
			}
		} else {
			v.FirstSlot = -1
		}
		d.Classes = append(d.Classes, v)
	}
	for _, m := range u.methods {
		v := MethodView{
			Name:    m.info.Name,
			Arity:   len(m.vp),
			Specs:   len(m.specs),
			UseHash: m.info.UseHash,
			Slots:   append([]int(nil), m.slotVals...),
			Cells:   append([]CellKind(nil), m.cells...),
		}
		for _, pc := range m.vp {
			v.VP = append(v.VP, pc.desc.Name)
		}
		for _, s := range m.info.strides {
			v.Strides = append(v.Strides, s.i)
		}
		for _, gs := range m.groups {
			v.GroupSizes = append(v.GroupSizes, len(gs))
		}
		d.Methods = append(d.Methods, v)
	}
	return d
}
