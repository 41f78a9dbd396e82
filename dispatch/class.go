package dispatch

// ---------------------------------------------------------------------------
// ClassDesc: host-declared class descriptors
// ---------------------------------------------------------------------------

// ClassDesc describes one class of the host object model. Hosts declare
// exactly one descriptor per class (typically as a package-level variable)
// and register it with a Runtime. The descriptor's address is the class's
// identity: the perfect-hash strategy hashes it, and the engine compares
// descriptors by pointer throughout.
type ClassDesc struct {
	Name string

	// Bases lists the direct base class and directly implemented
	// interfaces, in declaration order.
	Bases []*ClassDesc

	// Interface marks descriptors that only ever appear as static types,
	// never as the dynamic class of a value. Interfaces contribute
	// conformance edges but receive no method table.
	Interface bool

	// Dealloc is a host-owned finalizer slot. When it is nil the engine
	// steals it to publish the class's method table (an mtblRef); for a
	// class that uses Dealloc for its own purposes, Update fails with
	// ErrDeallocatorInUse unless every method it participates in resolves
	// through the perfect hash.
	Dealloc any
}

// IsSubclassOf reports whether c equals other or transitively derives
// from it, walking bases and interfaces.
func (c *ClassDesc) IsSubclassOf(other *ClassDesc) bool {
	if c == other {
		return true
	}
	for _, b := range c.Bases {
		if b.IsSubclassOf(other) {
			return true
		}
	}
	return false
}

// String implements the Stringer interface.
func (c *ClassDesc) String() string {
	return c.Name
}

// ---------------------------------------------------------------------------
// class: per-update internal view of a registered class
// ---------------------------------------------------------------------------

// methodParam records that a class is the declared type of one virtual
// parameter of one method.
type methodParam struct {
	m   *method
	dim int
}

// class is the updater's working representation of one participating
// class. Instances are rebuilt from scratch on every update pass.
type class struct {
	desc *ClassDesc
	seq  int // registration order, tie-break for layering

	directBases   []*class
	directDerived []*class

	// conforming is the reflexive transitive closure through direct-
	// derived edges: the class itself plus every subclass.
	conforming map[*class]bool

	// methodParams lists the (method, dimension) pairs whose declared
	// parameter class is this class.
	methodParams []methodParam

	// Slot bookkeeping. firstUsed is -1 until the first slot touching
	// this class is allocated.
	nextSlot  int
	firstUsed int

	// mtbl is the class's window into gmtbl, valid for slots in
	// [firstUsed, nextSlot). Interfaces have none.
	mtbl []word
}

// ---------------------------------------------------------------------------
// Registry construction: seeding, scooping, edges
// ---------------------------------------------------------------------------

// addClass upgrades a descriptor to an internal class object.
func (u *updater) addClass(cd *ClassDesc) *class {
	c := &class{
		desc:      cd,
		seq:       len(u.order),
		firstUsed: -1,
	}
	u.classes[cd] = c
	u.order = append(u.order, c)
	return c
}

// classOf returns the internal class for a descriptor, creating it on
// first sight.
func (u *updater) classOf(cd *ClassDesc) *class {
	if c, ok := u.classes[cd]; ok {
		return c
	}
	return u.addClass(cd)
}

// seed upgrades every class named by a method's virtual parameters or by
// a specialization's parameters, and records method-parameter
// appearances on the declared parameter classes.
func (u *updater) seed() {
	for _, m := range u.methods {
		for dim, cd := range m.info.VP {
			c := u.classOf(cd)
			c.methodParams = append(c.methodParams, methodParam{m: m, dim: dim})
			m.vp = append(m.vp, c)
		}
		for _, s := range m.specs {
			for _, cd := range s.info.VP {
				s.params = append(s.params, u.classOf(cd))
			}
		}
	}
}

// scoop decides whether a declared class joins the registry: it does iff
// any transitive base or interface already participates. Classes with no
// participating ancestor are dropped, which bounds the working set to
// the participating sublattice. Undeclared ancestors reached on the way
// to a participating one are upgraded as well.
func (u *updater) scoop(cd *ClassDesc) *class {
	if c, ok := u.classes[cd]; ok {
		return c
	}
	if u.missed[cd] {
		return nil
	}
	joins := false
	for _, b := range cd.Bases {
		if u.scoop(b) != nil {
			joins = true
		}
	}
	if !joins {
		u.missed[cd] = true
		return nil
	}
	return u.addClass(cd)
}

// link records direct-base and direct-derived edges between registered
// classes. Bases outside the registry are ignored.
func (u *updater) link() {
	for _, c := range u.order {
		for _, b := range c.desc.Bases {
			if bc, ok := u.classes[b]; ok {
				c.directBases = append(c.directBases, bc)
				bc.directDerived = append(bc.directDerived, c)
			}
		}
	}
}

// buildRegistry runs seeding, scooping, and edge construction. Seeded
// classes get their ancestor chains scooped as well, so a specialization
// class reached through undeclared intermediates still connects to its
// method's parameter class.
func (u *updater) buildRegistry() {
	u.seed()
	seeded := append([]*class(nil), u.order...)
	for _, c := range seeded {
		for _, b := range c.desc.Bases {
			u.scoop(b)
		}
	}
	for _, cd := range u.rt.declared {
		u.scoop(cd)
	}
	u.link()
}

// computeConforming fills each class's conforming set. Classes are
// visited in reverse layered order so every derived class is complete
// before its bases.
func (u *updater) computeConforming() {
	for i := len(u.layered) - 1; i >= 0; i-- {
		c := u.layered[i]
		c.conforming = map[*class]bool{c: true}
		for _, d := range c.directDerived {
			for x := range d.conforming {
				c.conforming[x] = true
			}
		}
	}
}
