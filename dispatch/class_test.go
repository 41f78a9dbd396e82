package dispatch

import (
	"errors"
	"testing"
)

// runUpdater drives a full pass and returns the working state, so tests
// can look inside phases that Update discards.
func runUpdater(t *testing.T, rt *Runtime) *updater {
	t.Helper()
	u := newUpdater(rt)
	u.buildRegistry()
	if err := u.layer(); err != nil {
		t.Fatalf("layer failed: %v", err)
	}
	u.computeConforming()
	u.allocateSlots()
	if err := u.buildHash(); err != nil {
		t.Fatalf("buildHash failed: %v", err)
	}
	u.findGroups()
	if err := u.assemble(); err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	u.linkNext()
	u.publish()
	return u
}

// ---------------------------------------------------------------------------
// Descriptor hierarchy
// ---------------------------------------------------------------------------

func TestIsSubclassOf(t *testing.T) {
	object := &ClassDesc{Name: "Object"}
	point := &ClassDesc{Name: "Point", Bases: []*ClassDesc{object}}
	colorPoint := &ClassDesc{Name: "ColorPoint", Bases: []*ClassDesc{point}}
	rect := &ClassDesc{Name: "Rectangle", Bases: []*ClassDesc{object}}

	if !point.IsSubclassOf(object) {
		t.Error("Point should be subclass of Object")
	}
	if !colorPoint.IsSubclassOf(object) {
		t.Error("ColorPoint should be subclass of Object")
	}
	if !colorPoint.IsSubclassOf(point) {
		t.Error("ColorPoint should be subclass of Point")
	}
	if !colorPoint.IsSubclassOf(colorPoint) {
		t.Error("ColorPoint should be subclass of itself")
	}
	if colorPoint.IsSubclassOf(rect) {
		t.Error("ColorPoint should not be subclass of Rectangle")
	}
	if object.IsSubclassOf(point) {
		t.Error("Object should not be subclass of Point")
	}

	// Interfaces count as bases too.
	printer := &ClassDesc{Name: "Printer", Interface: true}
	printable := &ClassDesc{Name: "PrintablePoint", Bases: []*ClassDesc{point, printer}}
	if !printable.IsSubclassOf(printer) {
		t.Error("PrintablePoint should be subclass of the Printer interface")
	}
	if !printable.IsSubclassOf(object) {
		t.Error("PrintablePoint should be subclass of Object through Point")
	}
}

// ---------------------------------------------------------------------------
// Seeding and scooping
// ---------------------------------------------------------------------------

func TestScoopingDropsNonParticipants(t *testing.T) {
	rt := NewRuntime()
	l := declareAnimals(rt)
	declareKick(rt, l)

	// A hierarchy with no participating ancestor stays out.
	mineral := &ClassDesc{Name: "Mineral"}
	quartz := &ClassDesc{Name: "Quartz", Bases: []*ClassDesc{mineral}}
	rt.RegisterClass(mineral)
	rt.RegisterClass(quartz)

	u := runUpdater(t, rt)
	if _, ok := u.classes[mineral]; ok {
		t.Error("Mineral should not join the registry")
	}
	if _, ok := u.classes[quartz]; ok {
		t.Error("Quartz should not join the registry")
	}
	if _, ok := u.classes[l.pitbull]; !ok {
		t.Error("Pitbull should join the registry")
	}
}

func TestScoopingUpgradesUndeclaredIntermediates(t *testing.T) {
	rt := NewRuntime()

	animalC := &ClassDesc{Name: "Animal"}
	mammal := &ClassDesc{Name: "Mammal", Bases: []*ClassDesc{animalC}}
	dog := &ClassDesc{Name: "Dog", Bases: []*ClassDesc{mammal}}
	// Mammal is never declared; only Dog is.
	rt.RegisterClass(animalC)
	rt.RegisterClass(dog)

	kick := &MethodInfo{Name: "kick", VP: []*ClassDesc{animalC}}
	kick.NotImplemented = kickFn(func(a animal) string { return "" })
	kick.Ambiguous = kickFn(func(a animal) string { return "" })
	rt.RegisterMethod(kick)

	u := runUpdater(t, rt)
	mc, ok := u.classes[mammal]
	if !ok {
		t.Fatal("undeclared intermediate Mammal should be scooped")
	}
	dc := u.classes[dog]
	ac := u.classes[animalC]
	if !ac.conforming[dc] || !ac.conforming[mc] {
		t.Error("Animal's conforming set should include Mammal and Dog")
	}
}

// ---------------------------------------------------------------------------
// Edges and conforming sets
// ---------------------------------------------------------------------------

func TestConformingSets(t *testing.T) {
	rt := NewRuntime()
	l := declareAnimals(rt)
	declareKick(rt, l)
	u := runUpdater(t, rt)

	ac := u.classes[l.animal]
	if len(ac.conforming) != 5 {
		t.Errorf("|conforming(Animal)| = %d, want 5", len(ac.conforming))
	}
	dc := u.classes[l.dog]
	if len(dc.conforming) != 2 {
		t.Errorf("|conforming(Dog)| = %d, want 2", len(dc.conforming))
	}
	if !dc.conforming[u.classes[l.pitbull]] {
		t.Error("Pitbull should conform to Dog")
	}
	if dc.conforming[u.classes[l.cat]] {
		t.Error("Cat should not conform to Dog")
	}
	pc := u.classes[l.pitbull]
	if len(pc.conforming) != 1 || !pc.conforming[pc] {
		t.Error("conforming(Pitbull) should be exactly {Pitbull}")
	}
}

func TestDirectEdges(t *testing.T) {
	rt := NewRuntime()
	l := declareAnimals(rt)
	declareKick(rt, l)
	u := runUpdater(t, rt)

	ac := u.classes[l.animal]
	if len(ac.directDerived) != 3 {
		t.Errorf("Animal has %d direct derived, want 3", len(ac.directDerived))
	}
	dc := u.classes[l.dog]
	if len(dc.directBases) != 1 || dc.directBases[0] != ac {
		t.Error("Dog's direct base should be Animal")
	}
}

// ---------------------------------------------------------------------------
// Layering
// ---------------------------------------------------------------------------

func TestLayeringBasesFirst(t *testing.T) {
	rt := NewRuntime()
	l := declareAnimals(rt)
	declareKick(rt, l)
	u := runUpdater(t, rt)

	pos := make(map[*class]int)
	for i, c := range u.layered {
		pos[c] = i
	}
	for _, c := range u.layered {
		for _, b := range c.directBases {
			if pos[b] >= pos[c] {
				t.Errorf("%s layered before its base %s", c.desc.Name, b.desc.Name)
			}
		}
	}

	// Same-wave classes come out in name order: Cat, Dog, Dolphin.
	ac := u.classes[l.animal]
	if u.layered[0] != ac {
		t.Fatalf("layered[0] = %s, want Animal", u.layered[0].desc.Name)
	}
	wave := []string{u.layered[1].desc.Name, u.layered[2].desc.Name, u.layered[3].desc.Name}
	want := []string{"Cat", "Dog", "Dolphin"}
	for i := range want {
		if wave[i] != want[i] {
			t.Errorf("layered[%d] = %s, want %s", i+1, wave[i], want[i])
		}
	}
}

func TestLatticeCycleFails(t *testing.T) {
	rt := NewRuntime()

	// Malformed descriptors: a cycle between X and Y.
	x := &ClassDesc{Name: "X"}
	y := &ClassDesc{Name: "Y", Bases: []*ClassDesc{x}}
	x.Bases = []*ClassDesc{y}
	rt.RegisterClass(x)
	rt.RegisterClass(y)

	m := &MethodInfo{Name: "h", VP: []*ClassDesc{x}}
	m.NotImplemented = kickFn(func(a animal) string { return "" })
	m.Ambiguous = kickFn(func(a animal) string { return "" })
	rt.RegisterMethod(m)

	err := rt.Update()
	if !errors.Is(err, ErrLatticeCycle) {
		t.Errorf("Update = %v, want ErrLatticeCycle", err)
	}
}

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

func TestInterfaceDiamond(t *testing.T) {
	rt := NewRuntime()

	walker := &ClassDesc{Name: "Walker", Interface: true}
	swimmer := &ClassDesc{Name: "Swimmer", Interface: true}
	base := &ClassDesc{Name: "Creature"}
	duck := &ClassDesc{Name: "Duck", Bases: []*ClassDesc{base, walker, swimmer}}
	goat := &ClassDesc{Name: "Goat", Bases: []*ClassDesc{base, walker}}
	for _, cd := range []*ClassDesc{base, duck, goat} {
		rt.RegisterClass(cd)
	}

	move := &MethodInfo{Name: "move", VP: []*ClassDesc{walker}}
	move.NotImplemented = kickFn(func(a animal) string {
		Raise(move, NotImplemented, a.Class())
		return ""
	})
	move.Ambiguous = kickFn(func(a animal) string {
		Raise(move, AmbiguousCall, a.Class())
		return ""
	})
	rt.RegisterMethod(move)
	rt.RegisterSpec(move, &SpecInfo{
		VP: []*ClassDesc{walker},
		PF: kickFn(func(a animal) string { return "walk" }),
	})
	rt.RegisterSpec(move, &SpecInfo{
		VP: []*ClassDesc{swimmer},
		PF: kickFn(func(a animal) string { return "swim" }),
	})

	u := runUpdater(t, rt)

	wc := u.classes[walker]
	if !wc.conforming[u.classes[duck]] || !wc.conforming[u.classes[goat]] {
		t.Error("classes implementing Walker should conform to it")
	}

	// Interfaces are conformance sources, never group members.
	m := u.methods[0]
	for _, g := range m.groups[0] {
		for _, c := range g.classes {
			if c.desc.Interface {
				t.Errorf("interface %s admitted into a group", c.desc.Name)
			}
		}
	}

	// Goat only walks; Duck walks and swims, incomparably.
	if got := move.Lookup1(animal{goat}).(kickFn)(animal{goat}); got != "walk" {
		t.Errorf("move(Goat) = %q, want %q", got, "walk")
	}
	errs := captureErrors(t)
	move.Lookup1(animal{duck}).(kickFn)(animal{duck})
	if len(*errs) != 1 || (*errs)[0].Reason != AmbiguousCall {
		t.Errorf("move(Duck) should be ambiguous, errors: %v", *errs)
	}
}
