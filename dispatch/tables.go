package dispatch

import "fmt"

// ---------------------------------------------------------------------------
// Table assembly: gmtbl, gdtbl, and per-class publication
// ---------------------------------------------------------------------------

// assemble lays out the global method table and the global dispatch
// table, then writes every cell. Both tables are allocated exactly once,
// at their final size, before any window into them is taken; nothing is
// reallocated afterwards, so published slices stay valid until the next
// update replaces them wholesale.
//
// gmtbl layout: per-method slot rows, then per-class method tables.
// gdtbl layout, per multi-virtual method: strides, then the flat tensor.
func (u *updater) assemble() error {
	if err := u.checkDealloc(); err != nil {
		return err
	}

	size := 0
	for _, m := range u.methods {
		size += len(m.slotVals)
	}
	for _, c := range u.layered {
		if !c.desc.Interface && c.firstUsed >= 0 {
			size += c.nextSlot - c.firstUsed
		}
	}
	u.gmtbl = make([]word, size)

	sp := 0
	for _, m := range u.methods {
		n := len(m.slotVals)
		m.info.slots = u.gmtbl[sp : sp+n : sp+n]
		for i, s := range m.slotVals {
			m.info.slots[i].i = s
		}
		sp += n
	}
	for _, c := range u.layered {
		if c.desc.Interface || c.firstUsed < 0 {
			continue
		}
		n := c.nextSlot - c.firstUsed
		c.mtbl = u.gmtbl[sp : sp+n : sp+n]
		sp += n
	}

	dsize := 0
	for _, m := range u.methods {
		if len(m.vp) < 2 {
			continue
		}
		cells := 1
		for _, gs := range m.groups {
			cells *= len(gs)
		}
		dsize += len(m.vp) - 1 + cells
	}
	u.gdtbl = make([]word, dsize)

	dp := 0
	for _, m := range u.methods {
		if len(m.vp) < 2 {
			m.info.strides = nil
			m.info.dtbl = nil
			continue
		}
		v := len(m.vp)
		m.info.strides = u.gdtbl[dp : dp+v-1 : dp+v-1]
		dp += v - 1

		// strides[k-1] is the distance one step along dimension k moves
		// in the flat tensor: the product of the group counts of all
		// lower dimensions.
		stride := 1
		for k := 1; k < v; k++ {
			stride *= len(m.groups[k-1])
			m.info.strides[k-1].i = stride
		}
		cells := stride * len(m.groups[v-1])
		m.info.dtbl = u.gdtbl[dp : dp+cells : dp+cells]
		dp += cells

		u.fillTensor(m)
	}

	for _, m := range u.methods {
		u.writeCells(m)
	}
	return nil
}

// checkDealloc surfaces classes whose Dealloc slot is host-owned while
// some method still relies on stealing it. A value left over from a
// previous update pass is ours to replace and does not conflict.
func (u *updater) checkDealloc() error {
	stolen := false
	for _, m := range u.methods {
		if !m.info.UseHash {
			stolen = true
			break
		}
	}
	if !stolen {
		return nil
	}
	for _, c := range u.layered {
		if c.desc.Interface || c.desc.Dealloc == nil {
			continue
		}
		if _, ok := c.desc.Dealloc.(mtblRef); ok {
			continue
		}
		for _, m := range u.methods {
			if m.info.UseHash {
				continue
			}
			for _, pc := range m.vp {
				if pc.conforming[c] {
					return fmt.Errorf("dispatch: class %s: %w", c.desc.Name, ErrDeallocatorInUse)
				}
			}
		}
	}
	return nil
}

// fillTensor resolves every cell of a multi-virtual method's dispatch
// tensor. Dimension 0 varies fastest, matching the stride layout.
func (u *updater) fillTensor(m *method) {
	v := len(m.vp)
	sizes := make([]int, v)
	for d, gs := range m.groups {
		if len(gs) == 0 {
			return
		}
		sizes[d] = len(gs)
	}

	idx := make([]int, v)
	for off := 0; off < len(m.info.dtbl); off++ {
		mask := m.groups[0][idx[0]].mask
		for d := 1; d < v; d++ {
			mask = mask.and(m.groups[d][idx[d]].mask)
		}
		var applicable []*spec
		for si := range m.specs {
			if mask.test(si) {
				applicable = append(applicable, m.specs[si])
			}
		}
		m.info.dtbl[off].fn = m.selectCell(applicable)

		for d := 0; d < v; d++ {
			idx[d]++
			if idx[d] < sizes[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// writeCells fills the per-class method-table cells for one method.
// Methods with one virtual parameter store the resolved callable
// directly; multi-virtual methods store, at dimension 0, a window into
// the tensor already offset by the group index and, at higher
// dimensions, the bare group index for the dispatcher to scale.
func (u *updater) writeCells(m *method) {
	if len(m.vp) == 1 {
		slot := m.slotVals[0]
		for _, g := range m.groups[0] {
			var applicable []*spec
			for si := range m.specs {
				if g.mask.test(si) {
					applicable = append(applicable, m.specs[si])
				}
			}
			pf := m.selectCell(applicable)
			for _, c := range g.classes {
				c.mtbl[slot-c.firstUsed].fn = pf
			}
		}
		return
	}

	if len(m.info.dtbl) == 0 {
		return
	}
	for d := range m.groups {
		slot := m.slotVals[d]
		for gi, g := range m.groups[d] {
			for _, c := range g.classes {
				cell := &c.mtbl[slot-c.firstUsed]
				if d == 0 {
					cell.w = m.info.dtbl[gi:]
				} else {
					cell.i = gi
				}
			}
		}
	}
}

// publish swaps the freshly built tables in: clears any method tables
// published by the previous pass, then stores the new windows through
// each class's stolen Dealloc slot and, when in use, the hash table.
// Callers are responsible for fencing dispatchers out around the swap.
func (u *updater) publish() {
	rt := u.rt

	for _, cd := range rt.published {
		if _, ok := cd.Dealloc.(mtblRef); ok {
			cd.Dealloc = nil
		}
	}
	rt.published = rt.published[:0]

	rt.gmtbl = u.gmtbl
	rt.gdtbl = u.gdtbl
	rt.hash = u.hash

	for _, c := range u.layered {
		if c.desc.Interface || c.mtbl == nil {
			continue
		}
		ref := mtblRef{words: c.mtbl, base: c.firstUsed}
		if u.hash.table != nil {
			u.hash.table[u.hash.index(c.desc)] = ref
		}
		if c.desc.Dealloc == nil {
			c.desc.Dealloc = ref
			rt.published = append(rt.published, c.desc)
		}
	}
}
