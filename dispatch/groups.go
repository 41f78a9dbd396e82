package dispatch

// ---------------------------------------------------------------------------
// Group finding: the compression unit of the dispatch tensor
// ---------------------------------------------------------------------------

// group gathers the concrete classes of one dimension that share an
// applicability mask. All classes in a group behave identically for this
// method, so they share one column of the dispatch tensor.
type group struct {
	mask    bitmask
	classes []*class
}

// findGroups partitions, for every dimension of every method, the
// conforming concrete classes of the declared parameter class by the set
// of specializations applicable to them. Iteration follows the layered
// order, so group indices are deterministic. Interfaces never become the
// dynamic class of a value and are not admitted.
func (u *updater) findGroups() {
	for _, m := range u.methods {
		m.groups = make([][]group, len(m.vp))
		for dim, pc := range m.vp {
			byMask := make(map[string]int)
			for _, c := range u.layered {
				if c.desc.Interface || !pc.conforming[c] {
					continue
				}
				mask := newBitmask(len(m.specs))
				for si, s := range m.specs {
					if s.params[dim].conforming[c] {
						mask.set(si)
					}
				}
				k := mask.key()
				gi, ok := byMask[k]
				if !ok {
					gi = len(m.groups[dim])
					byMask[k] = gi
					m.groups[dim] = append(m.groups[dim], group{mask: mask})
				}
				g := &m.groups[dim][gi]
				g.classes = append(g.classes, c)
			}
		}
	}
}
