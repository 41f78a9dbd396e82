// mminspect - build dispatch tables for a synthetic class lattice and
// inspect the result.
//
// The tool exists to eyeball table compression and hash behavior without
// writing a host program: it generates a lattice, registers a few
// methods over it, runs an update, prints the layout, and optionally
// writes a CBOR snapshot for offline diffing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/multimethods/config"
	"github.com/chazu/multimethods/dispatch"
	"github.com/chazu/multimethods/snapshot"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	useHash := flag.Bool("hash", false, "Resolve method tables through the perfect hash")
	width := flag.Int("classes", 26, "Number of leaf classes in the synthetic lattice")
	out := flag.String("o", "", "Write a CBOR table snapshot to this file")
	configDir := flag.String("config", "", "Directory containing dispatch.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mminspect [options]\n\n")
		fmt.Fprintf(os.Stderr, "Builds dispatch tables for a synthetic lattice and prints their layout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  mminspect -classes 100 -hash    # hash resolution over a wide lattice\n")
		fmt.Fprintf(os.Stderr, "  mminspect -o tables.cbor        # snapshot for offline diffing\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	opts := dispatch.DefaultOptions()
	if *configDir != "" {
		cfg, err := config.Load(*configDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		opts = cfg.Options()
		if cfg.Trace.Verbose {
			commonlog.Configure(2, nil)
		}
		if *out == "" {
			*out = cfg.SnapshotPath()
		}
	}

	rt := dispatch.NewRuntimeWithOptions(opts)
	buildDemo(rt, *width, *useHash)

	if err := rt.Update(); err != nil {
		fmt.Fprintf(os.Stderr, "Update failed: %v\n", err)
		os.Exit(1)
	}

	printDescription(rt.Describe())

	if *out != "" {
		img := snapshot.Capture(rt)
		data, err := snapshot.Marshal(img)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("snapshot %s written to %s (%d bytes)\n", img.SnapshotID, *out, len(data))
	}
}

// buildDemo registers a root class, a band of leaves beneath it, and two
// methods: a single-virtual one specialized on the root and the first
// leaf, and a double-virtual one specialized on (root, root) plus one
// leaf pair.
func buildDemo(rt *dispatch.Runtime, width int, useHash bool) {
	root := &dispatch.ClassDesc{Name: "Node"}
	rt.RegisterClass(root)

	leaves := make([]*dispatch.ClassDesc, width)
	for i := range leaves {
		leaves[i] = &dispatch.ClassDesc{
			Name:  fmt.Sprintf("Node%03d", i),
			Bases: []*dispatch.ClassDesc{root},
		}
		rt.RegisterClass(leaves[i])
	}

	label := &dispatch.MethodInfo{
		Name:    "label",
		VP:      []*dispatch.ClassDesc{root},
		UseHash: useHash,
		NotImplemented: func(n demoNode) string {
			return "<none>"
		},
		Ambiguous: func(n demoNode) string {
			return "<ambiguous>"
		},
	}
	rt.RegisterMethod(label)
	rt.RegisterSpec(label, &dispatch.SpecInfo{
		VP: []*dispatch.ClassDesc{root},
		PF: func(n demoNode) string { return "node" },
	})
	if width > 0 {
		leaf := leaves[0]
		rt.RegisterSpec(label, &dispatch.SpecInfo{
			VP: []*dispatch.ClassDesc{leaf},
			PF: func(n demoNode) string { return leaf.Name },
		})
	}

	join := &dispatch.MethodInfo{
		Name:    "join",
		VP:      []*dispatch.ClassDesc{root, root},
		UseHash: useHash,
		NotImplemented: func(a, b demoNode) string {
			return "<none>"
		},
		Ambiguous: func(a, b demoNode) string {
			return "<ambiguous>"
		},
	}
	rt.RegisterMethod(join)
	rt.RegisterSpec(join, &dispatch.SpecInfo{
		VP: []*dispatch.ClassDesc{root, root},
		PF: func(a, b demoNode) string { return "join" },
	})
	if width > 1 {
		rt.RegisterSpec(join, &dispatch.SpecInfo{
			VP: []*dispatch.ClassDesc{leaves[0], leaves[1]},
			PF: func(a, b demoNode) string { return "special join" },
		})
	}
}

// demoNode is the synthetic lattice's instance type.
type demoNode struct {
	class *dispatch.ClassDesc
}

func (n demoNode) Class() *dispatch.ClassDesc { return n.class }

func printDescription(d *dispatch.Description) {
	st := d.Stats
	fmt.Printf("pass %s: %d classes (%d concrete), %d methods, %d specs\n",
		st.PassID, st.Classes, st.ConcreteClasses, st.Methods, st.Specs)
	fmt.Printf("gmtbl %d words, gdtbl %d words", st.GmtblWords, st.GdtblWords)
	if st.HashSize > 0 {
		fmt.Printf(", hash table %d entries (%d attempts)", st.HashSize, st.HashAttempts)
	}
	fmt.Printf(", updated in %v\n\n", st.Duration)

	for _, m := range d.Methods {
		fmt.Printf("method %s/%d: slots %v", m.Name, m.Arity, m.Slots)
		if len(m.Strides) > 0 {
			fmt.Printf(", strides %v", m.Strides)
		}
		fmt.Printf(", groups %v, %d cells\n", m.GroupSizes, len(m.Cells))
	}
}
