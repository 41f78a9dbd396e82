package dispatch

import (
	"fmt"
	"math/bits"
	"unsafe"
)

// ---------------------------------------------------------------------------
// Perfect-hash method-table resolution
// ---------------------------------------------------------------------------

// hashInfo maps class identity tokens to method tables in O(1):
// index = (mult * token) >> shift. mult is searched at update time until
// the hash is injective over every participating class.
type hashInfo struct {
	mult  uint64
	shift uint
	table []mtblRef
}

// classToken returns the identity token hashed for a class: the address
// of its descriptor.
func classToken(cd *ClassDesc) uint64 {
	return uint64(uintptr(unsafe.Pointer(cd)))
}

// index returns the hash-table index for a class.
func (h *hashInfo) index(cd *ClassDesc) int {
	return int((h.mult * classToken(cd)) >> h.shift)
}

// xorshift is a small deterministic PRNG for the multiplier search.
type xorshift struct {
	s uint64
}

func (x *xorshift) next() uint64 {
	x.s ^= x.s >> 12
	x.s ^= x.s << 25
	x.s ^= x.s >> 27
	return x.s * 0x2545f4914f6cdd1d
}

// buildHash searches a hash multiplier injective over the tokens of all
// participating concrete classes. Table sizes grow through the room
// ladder (room*N/2 entries, rounded up to a power of two); for each size
// up to attempts random odd multipliers are drawn. Runs only when some
// method opted into hash resolution.
//
// The result lands in the updater's local hash; publish swaps it into
// the runtime together with the other tables, so a pass that fails
// later never disturbs live dispatch state.
func (u *updater) buildHash() error {
	needed := false
	for _, m := range u.methods {
		if m.info.UseHash {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	var tokens []uint64
	for _, c := range u.layered {
		if !c.desc.Interface {
			tokens = append(tokens, classToken(c.desc))
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	attempts := u.rt.opts.HashAttempts
	prng := xorshift{s: 0x9e3779b97f4a7c15}

	for room := u.rt.opts.HashMinRoom; room <= u.rt.opts.HashMaxRoom; room++ {
		capacity := room * len(tokens) / 2
		m := bits.Len(uint(capacity - 1))
		if capacity <= 1 || m < 1 {
			m = 1
		}
		size := 1 << m
		shift := uint(64 - m)

		seen := make([]int, size)
		for a := 1; a <= attempts; a++ {
			u.stats.HashAttempts++
			mult := prng.next() | 1
			injective := true
			for _, tok := range tokens {
				idx := (mult * tok) >> shift
				if seen[idx] == a {
					injective = false
					break
				}
				seen[idx] = a
			}
			if injective {
				u.hash = hashInfo{
					mult:  mult,
					shift: shift,
					table: make([]mtblRef, size),
				}
				u.stats.HashSize = size
				log.Debugf("hash: mult %#x shift %d size %d (%d classes, %d attempts)",
					mult, shift, size, len(tokens), u.stats.HashAttempts)
				return nil
			}
		}
	}
	return fmt.Errorf("dispatch: no injective multiplier for %d classes: %w",
		len(tokens), ErrHashSearchFailed)
}
