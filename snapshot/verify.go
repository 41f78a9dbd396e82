package snapshot

import "fmt"

// Verify replays the engine's structural invariants against an image:
// slot containment for every conforming class, stride consistency, and
// dispatch-cell counts matching the group layout. It reports the first
// violation found, or nil for a sound image.
func Verify(img *TableImage) error {
	classes := make(map[string]*ClassImage, len(img.Classes))
	for i := range img.Classes {
		classes[img.Classes[i].Name] = &img.Classes[i]
	}

	// Reflexive transitive closure through base edges, derived side.
	conforming := make(map[string]map[string]bool, len(img.Classes))
	for name := range classes {
		conforming[name] = map[string]bool{name: true}
	}
	// Image classes are stored in layered order, so one reverse sweep
	// completes every set.
	for i := len(img.Classes) - 1; i >= 0; i-- {
		c := &img.Classes[i]
		for _, b := range c.Bases {
			for x := range conforming[c.Name] {
				conforming[b][x] = true
			}
		}
	}

	for _, m := range img.Methods {
		if len(m.Slots) != len(m.VP) {
			return fmt.Errorf("snapshot: method %s: %d slots for %d virtual parameters",
				m.Name, len(m.Slots), len(m.VP))
		}
		for dim, vp := range m.VP {
			if _, ok := classes[vp]; !ok {
				return fmt.Errorf("snapshot: method %s: unknown parameter class %s", m.Name, vp)
			}
			for name := range conforming[vp] {
				c := classes[name]
				if c.Interface || c.FirstSlot < 0 {
					continue
				}
				if m.Slots[dim] < c.FirstSlot || m.Slots[dim] >= c.SlotLimit {
					return fmt.Errorf("snapshot: method %s slot %d outside [%d,%d) of class %s",
						m.Name, m.Slots[dim], c.FirstSlot, c.SlotLimit, name)
				}
			}
		}

		if len(m.VP) >= 2 {
			if len(m.Strides) != len(m.VP)-1 {
				return fmt.Errorf("snapshot: method %s: %d strides for %d dimensions",
					m.Name, len(m.Strides), len(m.VP))
			}
			stride, cells := 1, 1
			for d, size := range m.GroupSizes {
				if d > 0 {
					stride *= m.GroupSizes[d-1]
					if m.Strides[d-1] != stride {
						return fmt.Errorf("snapshot: method %s: stride[%d] = %d, want %d",
							m.Name, d-1, m.Strides[d-1], stride)
					}
				}
				cells *= size
			}
			if cells != len(m.Cells) {
				return fmt.Errorf("snapshot: method %s: %d cells for %d-cell tensor",
					m.Name, len(m.Cells), cells)
			}
		} else if len(m.GroupSizes) == 1 && len(m.Cells) != m.GroupSizes[0] {
			return fmt.Errorf("snapshot: method %s: %d cells for %d groups",
				m.Name, len(m.Cells), m.GroupSizes[0])
		}
	}
	return nil
}
