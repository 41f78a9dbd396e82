// Package snapshot captures the dispatch engine's computed tables as a
// serializable image, for offline inspection and auditing.
package snapshot

import (
	"github.com/google/uuid"

	"github.com/chazu/multimethods/dispatch"
)

// FormatVersion identifies the image layout. Bump on incompatible
// change.
const FormatVersion = 1

// TableImage is a structural snapshot of one update pass: the
// participating classes with their slot ranges, every method's layout,
// and the hash parameters when hash resolution is in use.
type TableImage struct {
	Version    int       `cbor:"version"`
	SnapshotID uuid.UUID `cbor:"snapshot_id"`
	PassID     uuid.UUID `cbor:"pass_id"`

	Classes []ClassImage  `cbor:"classes"`
	Methods []MethodImage `cbor:"methods"`

	HashMult  uint64 `cbor:"hash_mult,omitempty"`
	HashShift uint   `cbor:"hash_shift,omitempty"`
	HashSize  int    `cbor:"hash_size,omitempty"`

	GmtblWords int `cbor:"gmtbl_words"`
	GdtblWords int `cbor:"gdtbl_words"`
}

// ClassImage mirrors one participating class.
type ClassImage struct {
	Name      string   `cbor:"name"`
	Bases     []string `cbor:"bases,omitempty"`
	Interface bool     `cbor:"interface,omitempty"`
	FirstSlot int      `cbor:"first_slot"`
	SlotLimit int      `cbor:"slot_limit"`
	MtblWords int      `cbor:"mtbl_words"`
}

// MethodImage mirrors one method's computed layout.
type MethodImage struct {
	Name       string   `cbor:"name"`
	VP         []string `cbor:"vp"`
	Specs      int      `cbor:"specs"`
	UseHash    bool     `cbor:"use_hash,omitempty"`
	Slots      []int    `cbor:"slots"`
	Strides    []int    `cbor:"strides,omitempty"`
	GroupSizes []int    `cbor:"group_sizes"`
	Cells      []uint8  `cbor:"cells"`
}

// Capture builds a TableImage from the runtime's last update. Returns
// nil if the runtime has never been updated.
func Capture(rt *dispatch.Runtime) *TableImage {
	d := rt.Describe()
	if d == nil {
		return nil
	}

	img := &TableImage{
		Version:    FormatVersion,
		SnapshotID: uuid.New(),
		PassID:     d.Stats.PassID,
		HashMult:   d.HashMult,
		HashShift:  d.HashShift,
		HashSize:   d.HashSize,
		GmtblWords: d.Stats.GmtblWords,
		GdtblWords: d.Stats.GdtblWords,
	}
	for _, c := range d.Classes {
		img.Classes = append(img.Classes, ClassImage{
			Name:      c.Name,
			Bases:     c.Bases,
			Interface: c.Interface,
			FirstSlot: c.FirstSlot,
			SlotLimit: c.SlotLimit,
			MtblWords: c.MtblWords,
		})
	}
	for _, m := range d.Methods {
		mi := MethodImage{
			Name:       m.Name,
			VP:         m.VP,
			Specs:      m.Specs,
			UseHash:    m.UseHash,
			Slots:      m.Slots,
			Strides:    m.Strides,
			GroupSizes: m.GroupSizes,
		}
		for _, k := range m.Cells {
			mi.Cells = append(mi.Cells, uint8(k))
		}
		img.Methods = append(img.Methods, mi)
	}
	return img
}
