package dispatch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("multimethods.dispatch")

// ---------------------------------------------------------------------------
// Runtime: the process-wide registry and table owner
// ---------------------------------------------------------------------------

// Options tunes an update pass. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	// HashAttempts bounds the random multipliers tried per table size
	// during the perfect-hash search.
	HashAttempts int

	// HashMinRoom and HashMaxRoom bound the table-size ladder: each room
	// r is tried with a table of r*N/2 entries before moving on.
	HashMinRoom int
	HashMaxRoom int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		HashAttempts: 100000,
		HashMinRoom:  2,
		HashMaxRoom:  6,
	}
}

// Runtime owns the registry of declared classes, methods, and
// specializations, and the tables the dispatcher reads. Registration and
// Update mutate it under an internal mutex; dispatch reads the published
// tables without locks. A process-wide Runtime backs the package-level
// API; tests build private ones.
type Runtime struct {
	mu   sync.Mutex
	opts Options

	declared    []*ClassDesc
	declaredSet map[*ClassDesc]bool
	methods     []*MethodInfo

	needUpdate atomic.Bool

	// Rebuilt wholesale by each update pass.
	gmtbl     []word
	gdtbl     []word
	hash      hashInfo
	published []*ClassDesc
	stats     UpdateStats
	desc      *Description
}

// NewRuntime creates an empty runtime with the default tuning.
func NewRuntime() *Runtime {
	return NewRuntimeWithOptions(DefaultOptions())
}

// NewRuntimeWithOptions creates an empty runtime with explicit tuning.
func NewRuntimeWithOptions(opts Options) *Runtime {
	return &Runtime{
		opts:        opts,
		declaredSet: make(map[*ClassDesc]bool),
	}
}

// NeedUpdate reports whether a registration happened since the last
// successful update.
func (rt *Runtime) NeedUpdate() bool {
	return rt.needUpdate.Load()
}

// ---------------------------------------------------------------------------
// updater: one update pass
// ---------------------------------------------------------------------------

// updater carries the per-pass working state. Everything here is
// discarded when the pass ends; only the published tables survive.
type updater struct {
	rt *Runtime

	classes map[*ClassDesc]*class
	missed  map[*ClassDesc]bool
	order   []*class
	layered []*class
	methods []*method

	gmtbl []word
	gdtbl []word
	hash  hashInfo
	stats UpdateStats
}

func newUpdater(rt *Runtime) *updater {
	u := &updater{
		rt:      rt,
		classes: make(map[*ClassDesc]*class),
		missed:  make(map[*ClassDesc]bool),
	}
	for _, mi := range rt.methods {
		m := &method{
			info:     mi,
			slotVals: make([]int, len(mi.VP)),
		}
		for _, si := range mi.specs {
			m.specs = append(m.specs, &spec{info: si})
		}
		u.methods = append(u.methods, m)
	}
	return u
}

// Update recomputes every table from the current registry: registry
// construction, layering, conforming sets, slot allocation, the optional
// hash search, group finding, selection, table assembly, and
// next-pointer linking, in that order. Concurrent calls serialize on the
// runtime's mutex; it is the caller's job to fence out in-flight
// dispatches around the swap.
func (rt *Runtime) Update() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	u := newUpdater(rt)

	u.buildRegistry()
	log.Debugf("update: %d classes, %d methods", len(u.order), len(u.methods))

	if err := u.layer(); err != nil {
		return fmt.Errorf("dispatch: layering: %w", err)
	}
	u.computeConforming()
	u.allocateSlots()
	if err := u.buildHash(); err != nil {
		return err
	}
	u.findGroups()
	if err := u.assemble(); err != nil {
		return err
	}
	u.linkNext()
	u.publish()

	u.stats.PassID = uuid.New()
	u.stats.When = start
	u.stats.Duration = time.Since(start)
	u.stats.Classes = len(u.order)
	for _, c := range u.order {
		if !c.desc.Interface {
			u.stats.ConcreteClasses++
		}
	}
	u.stats.Methods = len(u.methods)
	for _, m := range u.methods {
		u.stats.Specs += len(m.specs)
	}
	u.stats.GmtblWords = len(u.gmtbl)
	u.stats.GdtblWords = len(u.gdtbl)
	rt.stats = u.stats
	rt.desc = u.describe()

	rt.needUpdate.Store(false)
	log.Infof("update %s: %d classes, %d methods, %d specs, gmtbl %d words, gdtbl %d words in %v",
		u.stats.PassID, u.stats.Classes, u.stats.Methods, u.stats.Specs,
		u.stats.GmtblWords, u.stats.GdtblWords, u.stats.Duration)
	return nil
}

// ---------------------------------------------------------------------------
// Package-level API over the process-wide runtime
// ---------------------------------------------------------------------------

var defaultRuntime = NewRuntime()

// Default returns the process-wide runtime.
func Default() *Runtime {
	return defaultRuntime
}

// RegisterClass declares a class on the process-wide runtime.
func RegisterClass(cd *ClassDesc) {
	defaultRuntime.RegisterClass(cd)
}

// RegisterMethod registers a method on the process-wide runtime.
func RegisterMethod(mi *MethodInfo) {
	defaultRuntime.RegisterMethod(mi)
}

// UnregisterMethod removes a method from the process-wide runtime.
func UnregisterMethod(mi *MethodInfo) {
	defaultRuntime.UnregisterMethod(mi)
}

// RegisterSpec attaches a specialization on the process-wide runtime.
func RegisterSpec(mi *MethodInfo, si *SpecInfo) {
	defaultRuntime.RegisterSpec(mi, si)
}

// UnregisterSpec detaches a specialization on the process-wide runtime.
func UnregisterSpec(mi *MethodInfo, si *SpecInfo) {
	defaultRuntime.UnregisterSpec(mi, si)
}

// Update rebuilds the process-wide runtime's tables.
func Update() error {
	return defaultRuntime.Update()
}

// NeedUpdate reports the process-wide runtime's dirty flag.
func NeedUpdate() bool {
	return defaultRuntime.NeedUpdate()
}
