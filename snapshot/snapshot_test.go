package snapshot

import (
	"testing"

	"github.com/chazu/multimethods/dispatch"
)

type inst struct {
	class *dispatch.ClassDesc
}

func (i inst) Class() *dispatch.ClassDesc { return i.class }

type kickFn = func(inst) string
type meetFn = func(inst, inst) string

// testRuntime builds a small lattice with one single- and one
// double-virtual method, updated and ready to capture.
func testRuntime(t *testing.T) *dispatch.Runtime {
	t.Helper()
	rt := dispatch.NewRuntime()

	animal := &dispatch.ClassDesc{Name: "Animal"}
	dog := &dispatch.ClassDesc{Name: "Dog", Bases: []*dispatch.ClassDesc{animal}}
	cat := &dispatch.ClassDesc{Name: "Cat", Bases: []*dispatch.ClassDesc{animal}}
	for _, cd := range []*dispatch.ClassDesc{animal, dog, cat} {
		rt.RegisterClass(cd)
	}

	kick := &dispatch.MethodInfo{Name: "kick", VP: []*dispatch.ClassDesc{animal}}
	kick.NotImplemented = kickFn(func(a inst) string { return "" })
	kick.Ambiguous = kickFn(func(a inst) string { return "" })
	rt.RegisterMethod(kick)
	rt.RegisterSpec(kick, &dispatch.SpecInfo{
		VP: []*dispatch.ClassDesc{dog},
		PF: kickFn(func(a inst) string { return "bark" }),
	})

	meet := &dispatch.MethodInfo{Name: "meet", VP: []*dispatch.ClassDesc{animal, animal}}
	meet.NotImplemented = meetFn(func(a, b inst) string { return "" })
	meet.Ambiguous = meetFn(func(a, b inst) string { return "" })
	rt.RegisterMethod(meet)
	rt.RegisterSpec(meet, &dispatch.SpecInfo{
		VP: []*dispatch.ClassDesc{animal, animal},
		PF: meetFn(func(a, b inst) string { return "ignore" }),
	})

	if err := rt.Update(); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	return rt
}

func TestCaptureBeforeUpdate(t *testing.T) {
	if img := Capture(dispatch.NewRuntime()); img != nil {
		t.Error("Capture of a never-updated runtime should return nil")
	}
}

func TestCaptureRoundTrip(t *testing.T) {
	rt := testRuntime(t)
	img := Capture(rt)
	if img == nil {
		t.Fatal("Capture returned nil")
	}
	if img.Version != FormatVersion {
		t.Errorf("Version = %d, want %d", img.Version, FormatVersion)
	}
	if img.PassID != rt.LastUpdate().PassID {
		t.Error("image should carry the pass ID of the last update")
	}
	if len(img.Classes) != 3 {
		t.Errorf("captured %d classes, want 3", len(img.Classes))
	}
	if len(img.Methods) != 2 {
		t.Errorf("captured %d methods, want 2", len(img.Methods))
	}

	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.SnapshotID != img.SnapshotID || back.PassID != img.PassID {
		t.Error("round trip should preserve identifiers")
	}
	if len(back.Classes) != len(img.Classes) || len(back.Methods) != len(img.Methods) {
		t.Error("round trip should preserve structure")
	}
	for i := range img.Methods {
		if back.Methods[i].Name != img.Methods[i].Name {
			t.Errorf("method %d = %q, want %q", i, back.Methods[i].Name, img.Methods[i].Name)
		}
		if len(back.Methods[i].Cells) != len(img.Methods[i].Cells) {
			t.Errorf("method %d cell count changed across the wire", i)
		}
	}
}

func TestCanonicalEncodingIsStable(t *testing.T) {
	rt := testRuntime(t)
	img := Capture(rt)

	first, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(first) != string(second) {
		t.Error("canonical encoding should be byte-stable")
	}
}

func TestVerifySoundImage(t *testing.T) {
	rt := testRuntime(t)
	img := Capture(rt)
	if err := Verify(img); err != nil {
		t.Errorf("Verify of a fresh capture failed: %v", err)
	}
}

func TestVerifyCatchesCorruption(t *testing.T) {
	rt := testRuntime(t)

	img := Capture(rt)
	img.Methods[0].Slots[0] = 999
	if err := Verify(img); err == nil {
		t.Error("Verify should reject an out-of-range slot")
	}

	img = Capture(rt)
	for i := range img.Methods {
		if len(img.Methods[i].Strides) > 0 {
			img.Methods[i].Strides[0] = 7
			if err := Verify(img); err == nil {
				t.Error("Verify should reject an inconsistent stride")
			}
			break
		}
	}

	img = Capture(rt)
	img.Methods[0].Cells = img.Methods[0].Cells[:0]
	if err := Verify(img); err == nil {
		t.Error("Verify should reject a truncated cell list")
	}
}

func TestUnmarshalRejectsWrongVersion(t *testing.T) {
	rt := testRuntime(t)
	img := Capture(rt)
	img.Version = 99
	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if _, err := Unmarshal(data); err == nil {
		t.Error("Unmarshal should reject unknown versions")
	}
}
