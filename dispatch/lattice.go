package dispatch

import "sort"

// ---------------------------------------------------------------------------
// Layering: topological ordering of the class registry
// ---------------------------------------------------------------------------

// layer orders the registry so every class appears after all its direct
// bases. Classes whose bases are all emitted are extracted in waves; each
// wave is sorted by name (registration order breaks ties) so the layout
// is deterministic across runs. A wave that comes up empty while classes
// remain means the registry contains a cycle, which is a structural bug.
func (u *updater) layer() error {
	pending := make(map[*class]bool, len(u.order))
	for _, c := range u.order {
		pending[c] = true
	}

	u.layered = make([]*class, 0, len(u.order))
	for len(pending) > 0 {
		var wave []*class
		for _, c := range u.order {
			if !pending[c] {
				continue
			}
			ready := true
			for _, b := range c.directBases {
				if pending[b] {
					ready = false
					break
				}
			}
			if ready {
				wave = append(wave, c)
			}
		}
		if len(wave) == 0 {
			return ErrLatticeCycle
		}
		sort.Slice(wave, func(i, j int) bool {
			if wave[i].desc.Name != wave[j].desc.Name {
				return wave[i].desc.Name < wave[j].desc.Name
			}
			return wave[i].seq < wave[j].seq
		})
		for _, c := range wave {
			u.layered = append(u.layered, c)
			delete(pending, c)
		}
	}
	return nil
}
