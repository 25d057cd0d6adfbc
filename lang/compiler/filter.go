package compiler

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/mna/urbc/lang/ir/lower"
)

// Filter marks every Func and Static reachable from main, by walking each
// reached function's compiled op sequence for Call and static-load
// references. Unreached funcs/statics keep Used false and are dropped by
// lang/asm's layout pass. original_source's filter() is a no-op stub that
// marks everything used (see DESIGN.md); this is the real mark-sweep it
// never grew.
func (t *CompileTask) Filter() {
	if t.Status != StatusCompiled {
		panic(fmt.Sprintf("compiler: Filter called in status %s, want compiled", t.Status))
	}
	t.Status = StatusInvalid

	funcSeen := make([]*bitset.BitSet, len(t.Modules))
	staticSeen := make([]*bitset.BitSet, len(t.Modules))
	for i, m := range t.Modules {
		funcSeen[i] = bitset.New(uint(len(m.Funcs)))
		staticSeen[i] = bitset.New(uint(len(m.Statics)))
	}

	markStatic := func(c lower.Coord) {
		if staticSeen[c.Module].Test(uint(c.Element)) {
			return
		}
		staticSeen[c.Module].Set(uint(c.Element))
		t.Modules[c.Module].Statics[c.Element].Used = true
	}

	var worklist []lower.Coord
	if t.Main != nil {
		worklist = append(worklist, *t.Main)
	}
	for len(worklist) > 0 {
		c := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if funcSeen[c.Module].Test(uint(c.Element)) {
			continue
		}
		funcSeen[c.Module].Set(uint(c.Element))

		fn := &t.Modules[c.Module].Funcs[c.Element]
		fn.Used = true
		if fn.Data.Intermediary == nil {
			continue
		}
		for _, op := range fn.Data.Intermediary.Ops {
			switch op.Kind {
			case lower.OpCall:
				worklist = append(worklist, op.Coord)
			case lower.OpLoadStatic64, lower.OpLoadStaticAddress:
				markStatic(op.Coord)
			}
		}
	}

	t.Status = StatusFiltered
}
