package dispatch

// ---------------------------------------------------------------------------
// Instance: the hook between host values and the dispatcher
// ---------------------------------------------------------------------------

// Instance is implemented by every host value that can appear as a
// virtual argument. Class must return the value's concrete class
// descriptor, never an interface descriptor.
//
// Because Class always yields the concrete descriptor, no pointer
// adjustment is needed to recover it from an interface-typed argument;
// hosts whose object model cannot guarantee this must pass concrete
// class arguments only.
type Instance interface {
	Class() *ClassDesc
}

// ---------------------------------------------------------------------------
// Word: the storage cell of gmtbl and gdtbl
// ---------------------------------------------------------------------------

// word is one cell of the global method table or a dispatch tensor.
// A cell holds exactly one of:
//   - fn: a specialization function or error thunk (as the method's
//     concrete func type)
//   - w:  a window into the owning method's dispatch tensor, already
//     offset by the dimension-0 group index
//   - i:  an integer (slot number, group index, or stride)
type word struct {
	fn any
	w  []word
	i  int
}

// mtblRef locates one class's method table: the backing cells plus the
// class's first used slot. Indexing is words[slot-base]. The same value
// is stored through a stolen Dealloc slot and in perfect-hash entries.
type mtblRef struct {
	words []word
	base  int
}
