package dispatch

// ---------------------------------------------------------------------------
// Specialization selection
// ---------------------------------------------------------------------------

// moreSpecific reports whether a strictly dominates b: every parameter of
// a either equals b's or conforms to it, and at least one is strictly
// narrower. Parameters from unrelated hierarchies leave the verdict
// untouched, so two specializations can be mutually incomparable.
func moreSpecific(a, b *spec) bool {
	result := false
	for i := range a.params {
		if a.params[i] == b.params[i] {
			continue
		}
		if b.params[i].conforming[a.params[i]] {
			result = true
		} else if a.params[i].conforming[b.params[i]] {
			return false
		}
	}
	return result
}

// bestOf folds candidates down to the set of most-specific
// specializations under the moreSpecific partial order. An empty result
// means no candidate applies; more than one survivor means the call is
// ambiguous.
func bestOf(candidates []*spec) []*spec {
	var best []*spec
outer:
	for _, s := range candidates {
		i := 0
		for i < len(best) {
			if moreSpecific(s, best[i]) {
				best = append(best[:i], best[i+1:]...)
			} else if moreSpecific(best[i], s) {
				continue outer
			} else {
				i++
			}
		}
		best = append(best, s)
	}
	return best
}

// selectCell resolves one dispatch cell to a callable and records its
// kind: the single most-specific applicable specialization, or the
// method's error thunk for empty and ambiguous outcomes.
func (m *method) selectCell(applicable []*spec) any {
	switch best := bestOf(applicable); len(best) {
	case 1:
		m.cells = append(m.cells, CellSpec)
		return best[0].info.PF
	case 0:
		m.cells = append(m.cells, CellNotImplemented)
		return m.info.NotImplemented
	default:
		m.cells = append(m.cells, CellAmbiguous)
		return m.info.Ambiguous
	}
}

// ---------------------------------------------------------------------------
// Next-pointer linking
// ---------------------------------------------------------------------------

// linkNext fills, for every specialization that asked for one, the
// next-most-specific pointer: the unique best among all specializations
// it strictly dominates. Override bodies call through it directly, with
// no second dispatch.
func (u *updater) linkNext() {
	for _, m := range u.methods {
		for _, s := range m.specs {
			if s.info.Next == nil {
				continue
			}
			var less []*spec
			for _, o := range m.specs {
				if o != s && moreSpecific(s, o) {
					less = append(less, o)
				}
			}
			if best := bestOf(less); len(best) == 1 {
				*s.info.Next = best[0].info.PF
			} else {
				*s.info.Next = nil
			}
		}
	}
}
