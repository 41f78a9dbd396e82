package dispatch

import "fmt"

// ---------------------------------------------------------------------------
// Slot allocation
// ---------------------------------------------------------------------------

// allocateSlots assigns, for every (method, virtual-parameter) pair, an
// integer slot into the per-class method tables. Working in layered
// order, the declared parameter class hands out its next free slot, then
// the slot is reserved across the whole conformance-connected component
// around it: down through every derived class and, from each class
// visited, back up through its other bases. Two methods can therefore
// share a slot number only when no class ever sees both, which is what
// keeps the tables small.
func (u *updater) allocateSlots() {
	for _, c := range u.layered {
		for _, mp := range c.methodParams {
			slot := c.nextSlot
			c.nextSlot++
			if c.firstUsed < 0 {
				c.firstUsed = slot
			}
			mp.m.slotVals[mp.dim] = slot

			visited := map[*class]bool{c: true}
			for _, d := range c.directDerived {
				u.reserveSlot(d, slot, visited)
			}
		}
	}
}

// reserveSlot propagates one allocated slot through the conformance
// component: every class reached must place its own future slots above
// it. Layering guarantees the slot is not already taken anywhere in the
// component; a violation means the allocator itself is broken.
func (u *updater) reserveSlot(c *class, slot int, visited map[*class]bool) {
	if visited[c] {
		return
	}
	visited[c] = true

	if slot < c.nextSlot {
		panic(fmt.Sprintf("dispatch: slot %d already taken in class %s (nextSlot %d)",
			slot, c.desc.Name, c.nextSlot))
	}
	c.nextSlot = slot + 1
	if c.firstUsed < 0 {
		c.firstUsed = slot
	}

	for _, b := range c.directBases {
		u.reserveSlot(b, slot, visited)
	}
	for _, d := range c.directDerived {
		u.reserveSlot(d, slot, visited)
	}
}
