package dispatch

import "fmt"

// ---------------------------------------------------------------------------
// MethodInfo / SpecInfo: descriptors supplied by the codegen layer
// ---------------------------------------------------------------------------

// MethodInfo describes one open method. The registrant fills the exported
// fields once, before registration; the update pass owns everything else.
//
// NotImplemented and Ambiguous are error thunks with the method's exact
// signature. They occupy dispatch-table cells for argument tuples with no
// applicable specialization and with several incomparable ones,
// respectively; a typical thunk calls Raise and returns a zero value.
type MethodInfo struct {
	Name string

	// VP lists the declared classes of the virtual parameters, in
	// parameter order.
	VP []*ClassDesc

	NotImplemented any
	Ambiguous      any

	// UseHash opts this method into perfect-hash method-table
	// resolution instead of the stolen Dealloc slot.
	UseHash bool

	// rt and specs are set by registration. The rest is filled by
	// Update: slots and strides are windows into gmtbl and gdtbl; dtbl is
	// the method's flat dispatch tensor (methods with one virtual
	// parameter have none).
	rt      *Runtime
	specs   []*SpecInfo
	slots   []word
	strides []word
	dtbl    []word
}

// Specs returns the registered specializations, in registration order.
func (mi *MethodInfo) Specs() []*SpecInfo {
	return mi.specs
}

// Arity returns the number of virtual parameters.
func (mi *MethodInfo) Arity() int {
	return len(mi.VP)
}

// SpecInfo describes one specialization of a method.
type SpecInfo struct {
	// VP lists the specialization's parameter classes, parallel to the
	// method's VP. Each must conform to the corresponding declared class.
	VP []*ClassDesc

	// PF is the specialization body, with the method's exact signature.
	PF any

	// Next, when non-nil, is filled by Update with the pf of the unique
	// next-most-specific applicable specialization, or with nil if none
	// exists uniquely. Override bodies read it and call directly, with
	// no re-dispatch.
	Next *any
}

// ---------------------------------------------------------------------------
// method / spec: per-update internal views
// ---------------------------------------------------------------------------

// method is the updater's working representation of one registered
// method. Rebuilt on every update pass.
type method struct {
	info  *MethodInfo
	vp    []*class
	specs []*spec

	slotVals []int

	// groups holds, per dimension, the ordered group partition of the
	// parameter class's conforming concrete classes.
	groups [][]group

	// cells records the resolved kind of every dispatch cell, for the
	// post-update description.
	cells []CellKind
}

// spec pairs a SpecInfo with its resolved parameter classes.
type spec struct {
	info   *SpecInfo
	params []*class
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// RegisterClass declares a class visible to the runtime. Every class that
// may become the dynamic type of a virtual argument must be declared
// before the first Update; undeclared intermediate bases between a
// declared class and a participating ancestor are picked up by the
// update pass. Duplicate declarations are ignored.
func (rt *Runtime) RegisterClass(cd *ClassDesc) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.declaredSet[cd] {
		return
	}
	rt.declaredSet[cd] = true
	rt.declared = append(rt.declared, cd)
	rt.needUpdate.Store(true)
}

// RegisterMethod registers a method descriptor. The descriptor's address
// is its identity; registering the same descriptor twice panics.
func (rt *Runtime) RegisterMethod(mi *MethodInfo) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if mi.rt != nil {
		panic(fmt.Sprintf("dispatch: method %q registered twice", mi.Name))
	}
	mi.rt = rt
	mi.specs = nil
	rt.methods = append(rt.methods, mi)
	rt.needUpdate.Store(true)
}

// UnregisterMethod removes a method and all its specializations.
func (rt *Runtime) UnregisterMethod(mi *MethodInfo) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, m := range rt.methods {
		if m == mi {
			rt.methods = append(rt.methods[:i], rt.methods[i+1:]...)
			break
		}
	}
	mi.rt = nil
	mi.specs = nil
	mi.slots = nil
	mi.strides = nil
	mi.dtbl = nil
	rt.needUpdate.Store(true)
}

// RegisterSpec attaches a specialization to a registered method.
func (rt *Runtime) RegisterSpec(mi *MethodInfo, si *SpecInfo) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if mi.rt != rt {
		panic(fmt.Sprintf("dispatch: specialization for unregistered method %q", mi.Name))
	}
	if len(si.VP) != len(mi.VP) {
		panic(fmt.Sprintf("dispatch: method %q: specialization has %d virtual parameters, want %d",
			mi.Name, len(si.VP), len(mi.VP)))
	}
	mi.specs = append(mi.specs, si)
	rt.needUpdate.Store(true)
}

// UnregisterSpec detaches a specialization from its method.
func (rt *Runtime) UnregisterSpec(mi *MethodInfo, si *SpecInfo) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, s := range mi.specs {
		if s == si {
			mi.specs = append(mi.specs[:i], mi.specs[i+1:]...)
			break
		}
	}
	if si.Next != nil {
		*si.Next = nil
	}
	rt.needUpdate.Store(true)
}
