package dispatch

// ---------------------------------------------------------------------------
// Dispatcher: the per-call code path
// ---------------------------------------------------------------------------
//
// A method's shim obtains the callable for the dynamic argument classes
// through one of the Lookup entry points, asserts it to the method's
// func type, and calls it. The returned value is always callable: cells
// with no unique specialization hold the method's error thunk, which
// has the same signature.
//
// Lookups touch only tables built by the last successful Update. Callers
// must run Update before the first dispatch and must not dispatch
// concurrently with an update.

// mtblOf resolves the method table of one argument, through the hash
// table or the stolen Dealloc slot depending on how the method opted.
func (mi *MethodInfo) mtblOf(arg Instance) mtblRef {
	cd := arg.Class()
	if mi.UseHash {
		h := &mi.rt.hash
		return h.table[(h.mult*classToken(cd))>>h.shift]
	}
	return cd.Dealloc.(mtblRef)
}

// Lookup1 is the fast path for methods with one virtual parameter: a
// single indexed load from the argument's method table.
func (mi *MethodInfo) Lookup1(a Instance) any {
	mt := mi.mtblOf(a)
	return mt.words[mi.slots[0].i-mt.base].fn
}

// Lookup2 resolves a two-virtual method: the first argument's cell is a
// window into the dispatch tensor, the second contributes its group
// index scaled by the stride.
func (mi *MethodInfo) Lookup2(a, b Instance) any {
	mt := mi.mtblOf(a)
	cell := mt.words[mi.slots[0].i-mt.base].w
	mt = mi.mtblOf(b)
	off := mt.words[mi.slots[1].i-mt.base].i * mi.strides[0].i
	return cell[off].fn
}

// Lookup3 resolves a three-virtual method.
func (mi *MethodInfo) Lookup3(a, b, c Instance) any {
	mt := mi.mtblOf(a)
	cell := mt.words[mi.slots[0].i-mt.base].w
	mt = mi.mtblOf(b)
	off := mt.words[mi.slots[1].i-mt.base].i * mi.strides[0].i
	mt = mi.mtblOf(c)
	off += mt.words[mi.slots[2].i-mt.base].i * mi.strides[1].i
	return cell[off].fn
}

// Lookup resolves a method of any arity. The arity-specialized entry
// points above avoid the slice allocation at the call site.
func (mi *MethodInfo) Lookup(args ...Instance) any {
	if len(args) == 1 {
		return mi.Lookup1(args[0])
	}
	mt := mi.mtblOf(args[0])
	cell := mt.words[mi.slots[0].i-mt.base].w
	off := 0
	for k := 1; k < len(args); k++ {
		mt = mi.mtblOf(args[k])
		off += mt.words[mi.slots[k].i-mt.base].i * mi.strides[k-1].i
	}
	return cell[off].fn
}
